package conf

import (
	"github.com/pelletier/go-toml/v2"
)

// Name is the configuration format.
const Name = "toml"

// Encode renders v as TOML.
func Encode(v any) ([]byte, error) {
	return toml.Marshal(v)
}
