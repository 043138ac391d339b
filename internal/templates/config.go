package templates

import "os"

const configTemplate = `
home_dir: ~/.dbrag
host: localhost
port: 8080
environment: dev
enable_auth: false
workers: 1

db:
  driver: pg
  host: host.docker.internal
  port: 5432
  user: postgres
  database: testdb
  table: actor

ollama:
  host: "http://host.docker.internal:11434"
  model: "llama2:latest"
  request_timeout: 180
  context_window: 30000

# pulsar:
#   url: "pulsar://localhost:6650"
`

const envTemplate = `# Database connection
# DB_HOST=host.docker.internal
# DB_PORT=5432
# DB_USER=postgres
# DB_PASSWORD=
# DB_DATABASE=testdb
# DB_TABLE=actor

# Model backend
# OLLAMA_HOST=http://host.docker.internal:11434
# TEXT_TO_SQL_MODEL=llama2:latest
`

func GetConfigTemplate() string {
	return configTemplate
}

func GetEnvTemplate() string {
	return envTemplate
}

func WriteConfig(path string) error {
	return writeFile(path, GetConfigTemplate())
}

func WriteEnv(path string) error {
	return writeFile(path, GetEnvTemplate())
}

func writeFile(path string, content string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	if err != nil {
		return err
	}

	return nil
}
