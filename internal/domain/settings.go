package domain

import "time"

type Settings struct {
	// Nom affiché dans les emails.
	SiteName string `json:"siteName"`
	// URL publique du site (liens des emails, liens de désinscription).
	SiteURL string `json:"siteUrl"`

	// Expéditeur des emails.
	SenderEmail string `json:"senderEmail"`
	SenderName  string `json:"senderName"`
	Signature   string `json:"signature"`

	// Délai minimal entre deux envois (quota du provider).
	SendIntervalMs int `json:"sendIntervalMs"`

	// Publier un épisode déclenche la notification des abonnés.
	NotifyOnPublish bool `json:"notifyOnPublish"`

	MaxWorkers int `json:"maxWorkers"`
}

func DefaultSettings() Settings {
	return Settings{
		SiteName:        "Stoop Politics",
		SiteURL:         "https://stooppolitics.com",
		SenderEmail:     "noreply@stooppolitics.com",
		SenderName:      "Stoop Politics",
		Signature:       "Jessie Mercury",
		SendIntervalMs:  600,
		NotifyOnPublish: true,
		MaxWorkers:      1,
	}
}

func (s Settings) SendInterval() time.Duration {
	if s.SendIntervalMs <= 0 {
		return 0
	}
	return time.Duration(s.SendIntervalMs) * time.Millisecond
}
