package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// AuthEventLogger records authentication events to an external sink.
// Implementations should be non-blocking and best-effort.
type AuthEventLogger interface {
	LogAuth(ctx context.Context, userID string, method string, ip *string, userAgent *string) error
}

// LogrusEvents writes auth events as structured log lines.
type LogrusEvents struct {
	Log logrus.FieldLogger
}

func (l LogrusEvents) LogAuth(_ context.Context, userID, method string, ip, userAgent *string) error {
	if l.Log == nil {
		return nil
	}
	fields := logrus.Fields{"user_id": userID, "method": method}
	if ip != nil {
		fields["ip"] = *ip
	}
	if userAgent != nil {
		fields["user_agent"] = *userAgent
	}
	l.Log.WithFields(fields).Info("auth event")
	return nil
}
