package config

// Wickfile represents the structure of the wick.yaml configuration file.
// Durations are expressed in seconds.
type Wickfile struct {
	Namespace     string   `yaml:"namespace"`
	Salt          string   `yaml:"salt"`
	CheckInterval int      `yaml:"checkInterval"`
	GraceDelay    int      `yaml:"graceDelay"`
	Store         StoreDTO `yaml:"store"`
	Preload       []string `yaml:"preload"`
	HTTP          HTTPDTO  `yaml:"http"`
	LogJSON       bool     `yaml:"logJSON"`
}

// StoreDTO represents the store section of the configuration.
type StoreDTO struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Addr   string `yaml:"addr"`
	Origin string `yaml:"origin"`
}

// HTTPDTO represents the http section of the configuration.
type HTTPDTO struct {
	Timeout int `yaml:"timeout"`
}
