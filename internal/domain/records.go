package domain

import "time"

// Claves del gateway de persistencia. Cada clave tiene su propio tipo de registro.
const (
	KeyHistory         = "profitcalc_history"         // []SavedCalculation
	KeySettings        = "profitcalc_settings"        // Settings
	KeyEmailSubscribed = "profitcalc_email_subscribed" // bool
	KeyFeedbacks       = "profitcalc_feedbacks"       // []Feedback
	KeySubscriptions   = "profitcalc_subscriptions"   // []Subscription
	KeyVersion         = "profitcalc_version"         // string
)

// HistoryLimit es el máximo de cálculos guardados. Los más viejos se descartan.
const HistoryLimit = 20

// SavedCalculation es un Result guardado en el historial.
type SavedCalculation struct {
	Result
	SavedAt time.Time `json:"savedAt"`
	Note    string    `json:"note"`
}

// PrependHistory agrega c al principio (más nuevo primero) y recorta a limit.
// No modifica el slice recibido.
func PrependHistory(history []SavedCalculation, c SavedCalculation, limit int) []SavedCalculation {
	if limit <= 0 {
		limit = HistoryLimit
	}
	out := make([]SavedCalculation, 0, min(len(history)+1, limit))
	out = append(out, c)
	for _, h := range history {
		if len(out) >= limit {
			break
		}
		out = append(out, h)
	}
	return out
}

// Settings son los últimos valores del formulario, para precargarlo.
type Settings struct {
	CostPrice    float64 `json:"costPrice,omitempty"`
	PlatformFee  float64 `json:"platformFee,omitempty"`
	ShippingFee  float64 `json:"shippingFee,omitempty"`
	AdsCost      float64 `json:"adsCost,omitempty"`
	SellingPrice float64 `json:"sellingPrice,omitempty"`
	Platform     string  `json:"platform,omitempty"`
}

// Input convierte los settings en un Input para el motor.
func (s Settings) Input() Input {
	return Input{
		CostPrice:          s.CostPrice,
		PlatformFeePercent: s.PlatformFee,
		ShippingFee:        s.ShippingFee,
		AdsCost:            s.AdsCost,
		SellingPrice:       s.SellingPrice,
	}
}

// SettingsFrom arma los settings a recordar a partir de un Input.
func SettingsFrom(in Input, platform string) Settings {
	return Settings{
		CostPrice:    in.CostPrice,
		PlatformFee:  in.PlatformFeePercent,
		ShippingFee:  in.ShippingFee,
		AdsCost:      in.AdsCost,
		SellingPrice: in.SellingPrice,
		Platform:     platform,
	}
}

// AnonymousEmail se guarda cuando el feedback llega sin email.
const AnonymousEmail = "anonymous"

// Feedback es un comentario del usuario guardado localmente.
type Feedback struct {
	Feedback    string    `json:"feedback" validate:"required"`
	Email       string    `json:"email" validate:"omitempty,email|eq=anonymous"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Subscription es un alta a la newsletter.
type Subscription struct {
	Email        string    `json:"email" validate:"required,email"`
	SubscribedAt time.Time `json:"subscribedAt"`
	Source       string    `json:"source"`
}
