package message

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	entry *logrus.Entry
}

// NewWatermillLogger bridges logrus into watermill's logger interface.
func NewWatermillLogger(logger *logrus.Logger) watermill.LoggerAdapter {
	return &logrusLogger{entry: logrus.NewEntry(logger)}
}

func (l *logrusLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.withFields(fields).WithError(err).Error(msg)
}

func (l *logrusLogger) Info(msg string, fields watermill.LogFields) {
	l.withFields(fields).Info(msg)
}

func (l *logrusLogger) Debug(msg string, fields watermill.LogFields) {
	l.withFields(fields).Debug(msg)
}

func (l *logrusLogger) Trace(msg string, fields watermill.LogFields) {
	l.withFields(fields).Trace(msg)
}

func (l *logrusLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &logrusLogger{entry: l.withFields(fields)}
}

func (l *logrusLogger) withFields(fields watermill.LogFields) *logrus.Entry {
	return l.entry.WithFields(logrus.Fields(fields))
}
