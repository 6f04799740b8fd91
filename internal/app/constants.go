package app

const (
	Name = "rechan"

	ConfigFilename = "config.json"
	DBFilename     = "history.db"
	LogFilename    = "rechan.log"
)
