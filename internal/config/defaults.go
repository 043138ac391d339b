package config

import "errors"

const (
	DefaultPort = 8080
	DefaultHost = "localhost"
)

const DefaultDbragHome = "~/.dbrag"

var (
	DefaultRequestsTopic = "dbrag/answers/requests"
	DefaultAnswersPrefix = "dbrag/answers:"
)

var ErrHomeDirExpandFailed = errors.New("failed to expand dbrag home directory")
