package calculator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/alejandrodnm/profitcalc/internal/ports"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultAppVersion es la versión que CheckVersion compara con la guardada.
	DefaultAppVersion = "2.0.0"
	// DefaultSubscriptionSource es el origen por defecto de un alta.
	DefaultSubscriptionSource = "footer"
)

// Config contiene la configuración del servicio.
type Config struct {
	HistoryLimit int
	Platforms    map[string]float64
	AppVersion   string
}

// DefaultConfig devuelve la configuración con los presets de plataforma por defecto.
func DefaultConfig() Config {
	return Config{
		HistoryLimit: domain.HistoryLimit,
		Platforms:    domain.PlatformFees(),
		AppVersion:   DefaultAppVersion,
	}
}

// Service orquesta motor → clasificador → renderer → gateway.
type Service struct {
	cfg      Config
	gateway  ports.Gateway
	renderer ports.Renderer
	validate *validator.Validate
	now      func() time.Time
}

// New crea un Service. renderer puede ser nil (modo servidor).
func New(cfg Config, gateway ports.Gateway, renderer ports.Renderer) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = domain.HistoryLimit
	}
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = domain.PlatformFees()
	}
	if cfg.AppVersion == "" {
		cfg.AppVersion = DefaultAppVersion
	}
	return &Service{
		cfg:      cfg,
		gateway:  gateway,
		renderer: renderer,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Outcome es un Result con su tier, advice y los valores ya formateados.
type Outcome struct {
	Result    domain.Result     `json:"result"`
	Tier      domain.ProfitTier `json:"tier"`
	Icon      string            `json:"icon"`
	Treatment string            `json:"treatment"`
	Advice    domain.Advice     `json:"advice"`
	Display   Display           `json:"display"`
}

// Display son los strings listos para mostrar (vi-VN, ₫, 1 decimal).
type Display struct {
	PlatformFee        string `json:"platformFee"`
	TotalCost          string `json:"totalCost"`
	ProfitPerOrder     string `json:"profitPerOrder"`
	ProfitPercentage   string `json:"profitPercentage"`
	ProfitMargin       string `json:"profitMargin"`
	CostPercentage     string `json:"costPercentage"`
	PlatformPercentage string `json:"platformPercentage"`
	ShippingPercentage string `json:"shippingPercentage"`
	AdsPercentage      string `json:"adsPercentage"`
}

// Suggestion es el precio sugerido y el cálculo completo con ese precio.
type Suggestion struct {
	Price         float64 `json:"suggestedPrice"`
	DesiredProfit float64 `json:"desiredProfit"`
	Display       string  `json:"display"`
	Outcome       Outcome `json:"outcome"`
}

// VersionCheck reporta si la app se actualizó desde la última ejecución.
type VersionCheck struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Updated  bool   `json:"updated"`
}

// Evaluate corre el motor sobre un Input ya coaccionado, sin renderizar.
func (s *Service) Evaluate(in domain.Input) (Outcome, error) {
	res, err := domain.Calculate(in)
	if err != nil {
		return Outcome{}, fmt.Errorf("calculator.Evaluate: %w", err)
	}
	return newOutcome(res), nil
}

// Calculate coacciona raw, calcula y renderiza el resultado.
func (s *Service) Calculate(ctx context.Context, raw domain.RawInput) (Outcome, error) {
	out, err := s.Evaluate(raw.Input())
	if err != nil {
		return Outcome{}, err
	}
	s.render(ctx, out.Result)
	return out, nil
}

// Suggest resuelve el precio para desired % de ganancia y recalcula con él.
// El precio de venta de raw se ignora.
func (s *Service) Suggest(ctx context.Context, raw domain.RawInput, desired string) (Suggestion, error) {
	in := raw.Input()
	target := domain.ParseAmount(desired)

	price, err := domain.SuggestPrice(in.CostPrice, in.ShippingFee, in.AdsCost, in.PlatformFeePercent, target)
	if err != nil {
		return Suggestion{}, fmt.Errorf("calculator.Suggest: %w", err)
	}

	in.SellingPrice = price
	out, err := s.Evaluate(in)
	if err != nil {
		return Suggestion{}, fmt.Errorf("calculator.Suggest: %w", err)
	}
	s.render(ctx, out.Result)

	return Suggestion{
		Price:         price,
		DesiredProfit: target,
		Display:       domain.FormatCurrency(price),
		Outcome:       out,
	}, nil
}

// Save calcula raw y lo agrega al historial. Devuelve el largo del historial.
func (s *Service) Save(ctx context.Context, raw domain.RawInput, note string) (int, error) {
	out, err := s.Evaluate(raw.Input())
	if err != nil {
		return 0, fmt.Errorf("calculator.Save: %w", err)
	}
	return s.SaveResult(ctx, out.Result, note)
}

// SaveResult agrega un resultado ya calculado al historial (más nuevo primero, con tope).
// Si el gateway falla, el cálculo sigue siendo válido y se devuelve ErrStorageFailure.
func (s *Service) SaveResult(ctx context.Context, res domain.Result, note string) (int, error) {
	history := s.History(ctx)
	history = domain.PrependHistory(history, domain.SavedCalculation{
		Result:  res,
		SavedAt: s.now(),
		Note:    strings.TrimSpace(note),
	}, s.cfg.HistoryLimit)

	if !s.gateway.Save(ctx, domain.KeyHistory, history) {
		return 0, fmt.Errorf("calculator.SaveResult: %w", domain.ErrStorageFailure)
	}
	slog.Debug("calculation saved", "id", res.ID, "history_len", len(history))
	return len(history), nil
}

// History devuelve el historial guardado, vacío si no hay nada.
func (s *Service) History(ctx context.Context) []domain.SavedCalculation {
	var history []domain.SavedCalculation
	if !s.gateway.Load(ctx, domain.KeyHistory, &history) {
		return []domain.SavedCalculation{}
	}
	return history
}

// SaveSettings guarda los últimos valores del formulario.
func (s *Service) SaveSettings(ctx context.Context, settings domain.Settings) error {
	settings.Platform = strings.ToLower(strings.TrimSpace(settings.Platform))
	if !s.gateway.Save(ctx, domain.KeySettings, settings) {
		return fmt.Errorf("calculator.SaveSettings: %w", domain.ErrStorageFailure)
	}
	return nil
}

// LoadSettings devuelve los settings guardados; ok es false si no hay.
func (s *Service) LoadSettings(ctx context.Context) (domain.Settings, bool) {
	var settings domain.Settings
	ok := s.gateway.Load(ctx, domain.KeySettings, &settings)
	return settings, ok
}

// Prefill completa los campos vacíos de raw con los settings guardados.
func (s *Service) Prefill(ctx context.Context, raw domain.RawInput) domain.RawInput {
	settings, ok := s.LoadSettings(ctx)
	if !ok {
		return raw
	}
	fill(&raw.CostPrice, settings.CostPrice)
	fill(&raw.PlatformFeePercent, settings.PlatformFee)
	fill(&raw.ShippingFee, settings.ShippingFee)
	fill(&raw.AdsCost, settings.AdsCost)
	fill(&raw.SellingPrice, settings.SellingPrice)
	return raw
}

func fill(dst *domain.RawValue, v float64) {
	if strings.TrimSpace(string(*dst)) == "" && v != 0 {
		*dst = domain.RawValue(strconv.FormatFloat(v, 'f', -1, 64))
	}
}

// SubmitFeedback valida y guarda un comentario. Sin email se guarda como "anonymous".
func (s *Service) SubmitFeedback(ctx context.Context, text, email string) (domain.Feedback, error) {
	fb := domain.Feedback{
		Feedback:    strings.TrimSpace(text),
		Email:       strings.TrimSpace(email),
		SubmittedAt: s.now(),
	}
	if err := s.validate.Struct(fb); err != nil {
		return domain.Feedback{}, fmt.Errorf("calculator.SubmitFeedback: %w", formatValidationErrors(err))
	}
	if fb.Email == "" {
		fb.Email = domain.AnonymousEmail
	}

	var feedbacks []domain.Feedback
	s.gateway.Load(ctx, domain.KeyFeedbacks, &feedbacks)
	feedbacks = append(feedbacks, fb)
	if !s.gateway.Save(ctx, domain.KeyFeedbacks, feedbacks) {
		return fb, fmt.Errorf("calculator.SubmitFeedback: %w", domain.ErrStorageFailure)
	}
	return fb, nil
}

// Subscribe valida el email, agrega la suscripción y marca el flag de suscrito.
func (s *Service) Subscribe(ctx context.Context, email, source string) (domain.Subscription, error) {
	if source = strings.TrimSpace(source); source == "" {
		source = DefaultSubscriptionSource
	}
	sub := domain.Subscription{
		Email:        strings.TrimSpace(email),
		SubscribedAt: s.now(),
		Source:       source,
	}
	if err := s.validate.Struct(sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("calculator.Subscribe: %w", formatValidationErrors(err))
	}

	var subs []domain.Subscription
	s.gateway.Load(ctx, domain.KeySubscriptions, &subs)
	subs = append(subs, sub)
	if !s.gateway.Save(ctx, domain.KeySubscriptions, subs) {
		return sub, fmt.Errorf("calculator.Subscribe: %w", domain.ErrStorageFailure)
	}
	if !s.gateway.Save(ctx, domain.KeyEmailSubscribed, true) {
		return sub, fmt.Errorf("calculator.Subscribe: flag: %w", domain.ErrStorageFailure)
	}
	return sub, nil
}

// Subscribed reporta si alguna vez se registró un email.
func (s *Service) Subscribed(ctx context.Context) bool {
	var subscribed bool
	return s.gateway.Load(ctx, domain.KeyEmailSubscribed, &subscribed) && subscribed
}

// CheckVersion compara la versión guardada con la actual y guarda la actual.
// Updated solo es true si había una versión previa distinta.
func (s *Service) CheckVersion(ctx context.Context) VersionCheck {
	check := VersionCheck{Current: s.cfg.AppVersion}
	s.gateway.Load(ctx, domain.KeyVersion, &check.Previous)

	if check.Previous != check.Current {
		if !s.gateway.Save(ctx, domain.KeyVersion, check.Current) {
			slog.Warn("could not persist app version", "version", check.Current)
		}
		check.Updated = check.Previous != ""
	}
	return check
}

// Preset devuelve el fee de una plataforma (case-insensitive).
func (s *Service) Preset(name string) (float64, bool) {
	return domain.FeeForPlatform(s.cfg.Platforms, name)
}

// Platforms devuelve una copia de los presets configurados.
func (s *Service) Platforms() map[string]float64 {
	out := make(map[string]float64, len(s.cfg.Platforms))
	for k, v := range s.cfg.Platforms {
		out[k] = v
	}
	return out
}

func (s *Service) render(ctx context.Context, res domain.Result) {
	if s.renderer == nil {
		return
	}
	if err := s.renderer.Render(ctx, res); err != nil {
		slog.Warn("renderer error", "err", err)
	}
}

func newOutcome(res domain.Result) Outcome {
	tier := res.Tier()
	return Outcome{
		Result:    res,
		Tier:      tier,
		Icon:      tier.Icon(),
		Treatment: tier.Treatment(),
		Advice:    tier.Advice(),
		Display: Display{
			PlatformFee:        domain.FormatCurrency(res.PlatformFee),
			TotalCost:          domain.FormatCurrency(res.TotalCost),
			ProfitPerOrder:     domain.FormatCurrency(res.ProfitPerOrder),
			ProfitPercentage:   domain.Percent(res.ProfitPercentage),
			ProfitMargin:       domain.Percent(res.ProfitMargin),
			CostPercentage:     domain.Percent(res.CostPercentage),
			PlatformPercentage: domain.Percent(res.PlatformPercentage),
			ShippingPercentage: domain.Percent(res.ShippingPercentage),
			AdsPercentage:      domain.Percent(res.AdsPercentage),
		},
	}
}
