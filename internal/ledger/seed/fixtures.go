package seed

import "github.com/go-arcade/squadio/internal/ledger/model"

type squadFixture struct {
	name, description         string
	primaryColor, secondColor string
	logoURL                   string
}

func (f squadFixture) settings() *model.SquadSettings {
	return &model.SquadSettings{
		Branding: model.Branding{
			PrimaryColor:   f.primaryColor,
			SecondaryColor: f.secondColor,
			LogoURL:        f.logoURL,
		},
		Notifications: model.SquadNotifications{EmailEnabled: true, BrowserEnabled: true},
		Points:        model.PointDefaults{MinPoints: 1, MaxPoints: 10, DefaultPoints: 5},
	}
}

var squadFixtures = []squadFixture{
	{"Engineering Team", "Software engineering squad", "#0066cc", "#003366", "https://example.com/logo.png"},
	{"Design Team", "Product design squad", "#ff6600", "#cc3300", "https://example.com/logo2.png"},
}

type userFixture struct {
	squad                     int
	username, email, fullName string
	role, theme               string
}

var userFixtures = []userFixture{
	{0, "johndoe", "john@example.com", "John Doe", model.RoleAdmin, model.ThemeLight},
	{0, "janedoe", "jane@example.com", "Jane Doe", model.RoleMember, model.ThemeDark},
	{1, "bobsmith", "bob@example.com", "Bob Smith", model.RoleAdmin, model.ThemeSystem},
	{1, "alicejones", "alice@example.com", "Alice Jones", model.RoleMember, model.ThemeLight},
}

type rankingFixture struct {
	name     string
	min, max int
}

var rankingFixtures = [][]rankingFixture{
	{{"Rookie", 0, 50}, {"Pro", 51, 100}, {"Expert", 101, 200}},
	{{"Beginner", 0, 50}, {"Intermediate", 51, 100}, {"Master", 101, 200}},
}

type ioFixture struct {
	title, description string
	points             int
}

var ioFixtures = []ioFixture{
	{"Late to standup", "Was 15 minutes late to the daily standup", 5},
	{"Missed design review", "Did not attend the scheduled design review session", 8},
}
