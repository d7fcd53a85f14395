package usecase

import "go.uber.org/zap"

// EmergencyDialer hands a phone number to the platform dialer. The call
// is fire and forget: the caller never waits on the outcome.
type EmergencyDialer interface {
	Dial(number string) error
}

// LogDialer records dial requests without placing a call. It stands in
// on platforms without a telephony integration.
type LogDialer struct {
	Logger *zap.Logger
}

func (d *LogDialer) Dial(number string) error {
	d.Logger.Info("Emergency dial requested", zap.String("number", number))
	return nil
}
