package domain

// MaxPartialErrors borne le nombre d'erreurs renvoyées à l'appelant.
const MaxPartialErrors = 3

// BroadcastResult comptabilise un envoi groupé. Un échec partiel n'est pas une erreur.
type BroadcastResult struct {
	Total         int      `json:"totalSubscribers"`
	Sent          int      `json:"sentCount"`
	Failed        int      `json:"errorCount"`
	PartialErrors []string `json:"partialErrors,omitempty"`
}

func (r *BroadcastResult) RecordSuccess() { r.Sent++ }

func (r *BroadcastResult) RecordFailure(msg string) {
	r.Failed++
	if len(r.PartialErrors) < MaxPartialErrors {
		r.PartialErrors = append(r.PartialErrors, msg)
	}
}

// AllFailed est vrai quand au moins un envoi a été tenté et qu'aucun n'a réussi.
func (r BroadcastResult) AllFailed() bool {
	return r.Failed > 0 && r.Sent == 0
}
