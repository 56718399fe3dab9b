package domain

const (
	// ConfigFileName is the name of the rules file.
	ConfigFileName = "tend.yaml"

	// ConfigFileNameAlt is the alternative extension of the rules file.
	ConfigFileNameAlt = "tend.yml"
)
