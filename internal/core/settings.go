package core

// NotificationSettings controls the reminder processor. Delivery itself is
// an external collaborator; these are its inputs.
type NotificationSettings struct {
	Enabled    bool     `json:"enabled"`
	DaysBefore int      `json:"daysBefore"`
	Channels   []string `json:"channels"`
}

// AppSettings is pure configuration. The aggregation layer reads Currency
// for formatting; nothing in the engine writes settings.
type AppSettings struct {
	Theme         string               `json:"theme"`
	Notifications NotificationSettings `json:"notifications"`
	Currency      string               `json:"currency"`
	Language      string               `json:"language"`
}

// DefaultSettings seeds a fresh store.
func DefaultSettings() AppSettings {
	return AppSettings{
		Theme: "system",
		Notifications: NotificationSettings{
			Enabled:    true,
			DaysBefore: 3,
			Channels:   []string{"push"},
		},
		Currency: "USD",
		Language: "en",
	}
}
