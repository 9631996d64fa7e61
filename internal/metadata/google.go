package metadata

// GoogleProviderID is the id of the Google Cloud Platform provider.
const GoogleProviderID = "google"

// Google credentials properties.
var (
	ProjectIDProperty = ConfigurationProperty{
		ConfigKey:   "projectId",
		Name:        "PROJECT_ID",
		Label:       "Project ID",
		Description: "Google Cloud Project ID.",
		Required:    true,
		Widget:      WidgetText,
	}
	JSONKeyProperty = ConfigurationProperty{
		ConfigKey: "jsonKey",
		Name:      "JSON_KEY",
		Label:     "Client ID JSON Key",
		Description: "JSON key for a service account, or the path to a file holding it. " +
			"If empty, Application Default Credentials are used.",
		Required:  false,
		Sensitive: true,
		Widget:    WidgetFile,
	}
)

// Google returns the metadata of the Google Cloud Platform provider.
func Google() CloudProviderMetadata {
	return CloudProviderMetadata{
		ID:          GoogleProviderID,
		Name:        "Google Cloud Platform",
		Description: "A provider implementation that provisions virtual resources on Google Cloud Platform.",
		Credentials: CredentialsProviderMetadata{
			Properties: []ConfigurationProperty{ProjectIDProperty, JSONKeyProperty},
		},
	}
}

// DefaultRegistry returns the Registry of providers shipped with the plugin.
func DefaultRegistry() *Registry {
	return NewRegistry(Google())
}
