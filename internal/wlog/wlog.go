// Package wlog wraps logrus into the structured, leveled logger every
// wireweaver subcommand uses, with an optional Sentry hook for reporting
// panics when a DSN is configured. ShrinkWrap and usblink never import this
// package: logging is a CLI-level concern layered on top of the core
// packages, never required by them.
package wlog

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/certifi/gocertifi"
	"github.com/evalphobia/logrus_sentry"
	"github.com/getsentry/raven-go"
	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger configured per the given format/verbosity/color,
// with a Sentry hook attached when dsn is non-empty.
func New(format string, verbosity int, color bool, dsn string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetLevel(levelFromVerbosity(verbosity))

	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: !color,
			FullTimestamp: true,
		})
	}

	if dsn != "" {
		hook, err := newSentryHook(dsn)
		if err != nil {
			return nil, fmt.Errorf("wlog: %w", err)
		}
		logger.AddHook(hook)
	}

	return logger, nil
}

func levelFromVerbosity(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.FatalLevel
	case v == 1:
		return logrus.ErrorLevel
	case v == 2:
		return logrus.WarnLevel
	case v == 3:
		return logrus.InfoLevel
	case v == 4:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// newSentryHook builds the logrus_sentry hook that reports error-and-above
// log entries to dsn. It points raven's default client at gocertifi's CA
// bundle first, since some minimal container images ship without a usable
// system root store and raven's HTTPS POST to Sentry would otherwise fail
// with an untrusted-certificate error.
func newSentryHook(dsn string) (*logrus_sentry.SentryHook, error) {
	if pool, err := gocertifi.CACerts(); err == nil {
		raven.DefaultClient.Transport = &raven.HTTPTransport{
			Client: &http.Client{
				Transport: &http.Transport{
					TLSClientConfig: &tls.Config{RootCAs: pool},
				},
			},
		}
	}

	hook, err := logrus_sentry.NewSentryHook(dsn, []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry hook: %w", err)
	}
	hook.Timeout = 0
	return hook, nil
}
