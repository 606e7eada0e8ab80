package chat

import (
	"encoding/json"
	"fmt"

	"github.com/querychat/querychat/internal/database"
)

// explainSampleRows caps how many result rows are embedded in the
// explanation prompt; the remainder is summarized as a count.
const explainSampleRows = 5

// followUpSampleRows caps the sample embedded in the follow-up prompt.
const followUpSampleRows = 3

const sqlPromptTemplate = `You are an expert SQL analyst. Generate ONLY the SQL query, no explanations.

IMPORTANT RULES:
1. Return ONLY valid SQL code
2. Use proper PostgreSQL syntax
3. Handle potential NULL values and data type mismatches
4. Use appropriate JOINs when multiple tables are needed
5. Add LIMIT clauses for potentially large result sets (default LIMIT 100 unless specifically asked for more)
6. Use proper date formatting and comparisons
7. Handle case-insensitive string comparisons when appropriate

Database Schema:
%s

Conversation Context (recent messages):
%s

Current Question: "%s"

If the question refers to previous results or uses pronouns like "that", "those", "them", use the conversation context to understand what they refer to.

Return only the SQL query:`

const repairPromptTemplate = `You are an expert SQL validator and optimizer.

Original SQL Query:
%s

Database Schema:
%s

Previous Error: %s

Please:
1. Fix any syntax errors
2. Ensure proper table/column references based on the schema
3. Add appropriate NULL checks and data type conversions
4. Add a reasonable LIMIT if missing

Return ONLY the corrected SQL query:`

const explainPromptTemplate = `You are a professional data analyst having a conversation with a business user.

Conversation History:
%s

Current Question: "%s"

Data Analysis Results:
%s%s

Please provide:
1. A conversational business explanation of these results
2. Key business insights and what they mean
3. Reference previous conversation if relevant

Format your response as JSON:
` + "```json" + `
{
  "response": "Your conversational business explanation here. Be specific about the numbers and insights.",
  "insights": [
    "Key insight 1",
    "Key insight 2",
    "Key insight 3"
  ]
}
` + "```"

const followUpPromptTemplate = `Based on the following data analysis context and conversation history, generate 3 intelligent follow-up questions that would provide deeper business insights.

Data Context:
%s

Recent Conversation:
%s

Generate questions that:
1. Dig deeper into the current findings
2. Explore related business metrics
3. Identify potential opportunities or concerns
4. Are specific and actionable

Return ONLY a JSON array of strings:
["Question 1", "Question 2", "Question 3"]`

const explorePromptTemplate = `Based on this database schema and conversation history, suggest 5 diverse analytical questions that would provide valuable business insights:

Database Schema:
%s

Previous Questions Context:
%s

Generate questions covering different analytical approaches:
- Time-based analysis (trends, seasonality)
- Comparative analysis (rankings, comparisons)
- Statistical analysis (correlations, distributions)
- Business intelligence (KPIs, performance metrics)
- Data quality and anomaly detection

Return ONLY a JSON array of 5 questions:
["Question 1", "Question 2", "Question 3", "Question 4", "Question 5"]`

func sqlPrompt(schemaInfo, context, question string) string {
	if context == "" {
		context = "This is the beginning of our conversation."
	}
	return fmt.Sprintf(sqlPromptTemplate, schemaInfo, context, question)
}

func repairPrompt(sqlText, schemaInfo, execErr string) string {
	return fmt.Sprintf(repairPromptTemplate, sqlText, schemaInfo, execErr)
}

func explainPrompt(context, question string, rs database.ResultSet) string {
	sample, _ := json.MarshalIndent(rs.Sample(explainSampleRows), "", "  ")

	overflow := ""
	if rs.Len() > explainSampleRows {
		overflow = fmt.Sprintf("\n... and %d more rows (total: %d rows)",
			rs.Len()-explainSampleRows, rs.Len())
	}
	return fmt.Sprintf(explainPromptTemplate, context, question, sample, overflow)
}

func followUpPrompt(rs database.ResultSet, context string) string {
	dataContext, _ := json.MarshalIndent(map[string]any{
		"rowCount":   rs.Len(),
		"columns":    rs.Columns,
		"sampleData": rs.Sample(followUpSampleRows),
	}, "", "  ")
	return fmt.Sprintf(followUpPromptTemplate, dataContext, context)
}

func explorePrompt(schemaInfo, context string) string {
	if context == "" {
		context = "No previous conversation"
	}
	return fmt.Sprintf(explorePromptTemplate, schemaInfo, context)
}
