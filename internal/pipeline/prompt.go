package pipeline

import (
	"bytes"
	"text/template"
)

const textToSQLTemplate = `Given an input question, first create a syntactically correct {{.Dialect}} query to run, then look at the results of the query and return the answer.
You can order the results by a relevant column to return the most interesting examples in the database.
Unless the user specifies in the question a specific number of examples to obtain, query for at most 5 results using the LIMIT clause as per Postgres. You can order the results to return the most informative data in the database.
Never query for all the columns from a specific table, only ask for a few relevant columns given the question.
You should use DISTINCT statements and avoid returning duplicates wherever possible.
Pay attention to use only the column names that you can see in the schema description. Be careful to not query for columns that do not exist. Pay attention to which column is in which table. Also, qualify column names with the table name when needed. You are required to use the following format, each taking one line:

Question: Question here
SQLQuery: SQL Query to run
SQLResult: Result of the SQLQuery
Answer: Final answer here

Only use tables listed below.
{{.Schema}}

Question: {{.Query}}
SQLQuery: `

// Prompt renders the text-to-SQL instructions shown to the model. The
// instructions are policies the model is asked to follow, not guarantees.
type Prompt struct {
	tmpl *template.Template
}

func NewPrompt() (*Prompt, error) {
	tmpl, err := template.New("textToSQL").Parse(textToSQLTemplate)
	if err != nil {
		return nil, err
	}

	return &Prompt{tmpl: tmpl}, nil
}

func (p *Prompt) Render(dialect, schemaText, question string) (string, error) {
	var buf bytes.Buffer
	err := p.tmpl.Execute(&buf, struct {
		Dialect string
		Schema  string
		Query   string
	}{
		Dialect: dialect,
		Schema:  schemaText,
		Query:   question,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
