package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/alejandrodnm/profitcalc/internal/adapters/notify"
	"github.com/alejandrodnm/profitcalc/internal/calculator"
	"github.com/alejandrodnm/profitcalc/internal/domain"
)

type calcOptions struct {
	platform string
	target   string
	save     bool
	note     string
	share    string
}

// runCalc calcula (o sugiere precio), recuerda los inputs y opcionalmente guarda en historial.
func runCalc(ctx context.Context, svc *calculator.Service, console *notify.Console, raw domain.RawInput, opts calcOptions) error {
	if opts.platform != "" && raw.PlatformFeePercent == "" {
		fee, ok := svc.Preset(opts.platform)
		if !ok {
			console.Notice("unknown platform %q, available: %v", opts.platform, domain.PlatformNames(svc.Platforms()))
			return fmt.Errorf("unknown platform %q", opts.platform)
		}
		raw.PlatformFeePercent = domain.RawValue(strconv.FormatFloat(fee, 'f', -1, 64))
	}
	raw = svc.Prefill(ctx, raw)

	var (
		out calculator.Outcome
		err error
	)
	if opts.target != "" {
		var sug calculator.Suggestion
		sug, err = svc.Suggest(ctx, raw, opts.target)
		if err == nil {
			console.PrintSuggestion(sug.Price, sug.DesiredProfit)
			out = sug.Outcome
		}
	} else {
		out, err = svc.Calculate(ctx, raw)
	}
	if err != nil {
		if domain.IsValidationError(err) {
			console.Notice("cannot calculate: %v", err)
		} else {
			slog.Error("calculation failed", "err", err)
		}
		return err
	}

	if err := svc.SaveSettings(ctx, domain.SettingsFrom(out.Result.Input, opts.platform)); err != nil {
		slog.Warn("could not remember inputs", "err", err)
	}

	if opts.save {
		n, err := svc.SaveResult(ctx, out.Result, opts.note)
		if err != nil {
			console.Notice("calculation not saved: storage unavailable")
		} else {
			console.Notice("saved (%d in history)", n)
		}
	}

	if opts.share != "" {
		fmt.Println(notify.ShareText(out.Result, opts.share))
	}
	return nil
}
