package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	subscriberCookie    = "stoop_subscriber"
	subscriberCookieTTL = 365 * 24 * time.Hour
)

// subscriberSession est le contenu signé du cookie abonné.
type subscriberSession struct {
	Email string `json:"email"`
}

func setSubscriberCookie(w http.ResponseWriter, sc *securecookie.SecureCookie, secure bool, email string) error {
	if sc == nil {
		return nil
	}
	val, err := sc.Encode(subscriberCookie, subscriberSession{Email: email})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     subscriberCookie,
		Value:    val,
		Path:     "/",
		MaxAge:   int(subscriberCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// readSubscriberCookie renvoie l'abonné du cookie, nil si absent ou altéré.
func readSubscriberCookie(r *http.Request, sc *securecookie.SecureCookie) *subscriberSession {
	if sc == nil {
		return nil
	}
	c, err := r.Cookie(subscriberCookie)
	if err != nil {
		return nil
	}
	var sess subscriberSession
	if err := sc.Decode(subscriberCookie, c.Value, &sess); err != nil || sess.Email == "" {
		return nil
	}
	return &sess
}
