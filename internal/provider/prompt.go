package provider

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sqlFenceRe   = regexp.MustCompile("(?s)```sql\\s*(.*?)```")
	anyFenceRe   = regexp.MustCompile("(?s)```\\s*(.*?)```")
	selectLead   = regexp.MustCompile(`(?is)^\s*(SELECT|WITH)\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SQLSystemPrompt builds the system message that steers the model toward
// a single read-only query over the given schema.
func SQLSystemPrompt(dialect, schema string) string {
	var b strings.Builder
	b.WriteString("You are a SQL assistant. Translate the user's question into a single ")
	b.WriteString(dialect)
	b.WriteString(" query.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Respond with exactly one SQL statement inside a ```sql fenced block.\n")
	b.WriteString("- Only SELECT or WITH statements. Never modify data or schema.\n")
	b.WriteString("- Use only the tables and columns listed below.\n")
	b.WriteString("- Prefer explicit column lists over SELECT *.\n")
	b.WriteString("- Add ORDER BY when the question implies a ranking or a time series.\n\n")
	b.WriteString("Schema:\n")
	b.WriteString(schema)
	return b.String()
}

// AnswerSystemPrompt steers the model toward a short natural-language
// summary of query results.
const AnswerSystemPrompt = "You are a data analyst. Given a question, the SQL that answered it, " +
	"and a summary of the results, reply with two or three sentences describing what the data shows. " +
	"Mention notable trends or correlations when the summary includes them. Do not repeat the SQL."

// AnswerUserPrompt packages the question and result summary for the
// answer turn.
func AnswerUserPrompt(question, sql, resultSummary string) string {
	return fmt.Sprintf("Question: %s\n\nSQL:\n%s\n\nResult summary:\n%s", question, sql, resultSummary)
}

// ExtractSQL pulls the SQL statement out of a model reply. It prefers a
// ```sql fenced block, then any fenced block that starts with SELECT or
// WITH, then a bare reply that is itself a query.
func ExtractSQL(reply string) (string, bool) {
	if m := sqlFenceRe.FindStringSubmatch(reply); m != nil {
		return normalizeSQL(m[1]), true
	}
	for _, m := range anyFenceRe.FindAllStringSubmatch(reply, -1) {
		if selectLead.MatchString(m[1]) {
			return normalizeSQL(m[1]), true
		}
	}
	if selectLead.MatchString(reply) {
		return normalizeSQL(reply), true
	}
	return "", false
}

func normalizeSQL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

// CompactWhitespace collapses runs of whitespace to single spaces. Used
// when logging SQL on one line.
func CompactWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}
