package transcript

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// DeepLinkParam est le paramètre de requête qui porte le temps de lecture.
const DeepLinkParam = "t"

// ShareableLink copie baseURL et pose t=<secondes avec une décimale>.
// Les autres paramètres sont conservés, un t existant est écrasé.
func ShareableLink(baseURL string, t float64) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(DeepLinkParam, strconv.FormatFloat(t, 'f', 1, 64))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseDeepLink extrait le temps d'une URL. Absent ou invalide => false, jamais d'erreur.
func ParseDeepLink(rawURL string) (float64, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}
	return ParseDeepLinkValue(u.Query().Get(DeepLinkParam))
}

// ParseDeepLinkValue parse la valeur brute du paramètre t.
// Les valeurs négatives sont renvoyées telles quelles : le bornage revient à l'appelant.
func ParseDeepLinkValue(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ClampTime borne t dans [0, duration]. duration <= 0 signifie durée inconnue.
func ClampTime(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if duration > 0 && t > duration {
		return duration
	}
	return t
}

// FormatTimestamp formate des secondes en m:ss.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
