package entity

// SettingsLayer is one level of connection settings, keyed like ConnectionSpec's yaml tags (host, port, ns, ...).
type SettingsLayer map[string]interface{}

// ConnectionSettings is the editor's connection configuration.
type ConnectionSettings struct {
	// Conn is the global connection.
	Conn SettingsLayer `yaml:"conn" json:"conn"`
	// Folders holds per workspace folder overrides.
	Folders map[string]SettingsLayer `yaml:"folders" json:"folders"`
	// Servers holds overrides keyed by server URI authority.
	Servers map[string]SettingsLayer `yaml:"servers" json:"servers"`
}
