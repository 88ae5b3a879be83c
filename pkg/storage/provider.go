package storage

import "github.com/google/wire"

// ProviderSet provides the backup archive, nil when unconfigured.
var ProviderSet = wire.NewSet(New)
