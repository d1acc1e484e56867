package common

import (
	"os"

	"github.com/sirupsen/logrus"
)

func init() {
	logger := logrus.StandardLogger()
	logger.Out = os.Stdout
	if IsReleaseMode() {
		logger.Formatter = &logrus.JSONFormatter{}
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.Formatter = &logrus.TextFormatter{}
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.AddHook(&DefaultFieldsHook{service: GetServiceName(), instance: GetServiceInstance()})
}

type DefaultFieldsHook struct {
	service  string
	instance string
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = hook.service
	e.Data["instance"] = hook.instance
	return nil
}
