package planner

import (
	"fmt"
	"strings"
)

// PlanSections are the headings every plan document is asked to contain.
var PlanSections = []string{"CONTEXT", "OBJECTIVE", "INSTRUCTIONS", "EXAMPLE"}

const planningTemplate = `You are a query planner. Analyze the user's request and create a detailed execution plan.
User Request: %s
Available Schema: %s

Create a comprehensive plan in this EXACT format:

# CONTEXT:
[Elaborate on what the user is asking for - be specific about the data they want]

# OBJECTIVE:
[Clear statement of what needs to be accomplished, including specific resource names and data points needed]

# INSTRUCTIONS:
[Step-by-step execution plan that includes:
1. Which schemas or resources to fetch
2. What specific data to query for
3. How to structure the final response]

# EXAMPLE:
[Show an example of what the final answer should look like]

Make sure to complete ALL sections fully.`

const executionTemplate = `You are an execution assistant. Use the provided plan to complete the user's request.
ORIGINAL USER REQUEST: %s

EXECUTION PLAN:
%s

Now execute this plan step by step:
1. Use the tools available to gather the required data
2. Follow the instructions from the plan
3. Provide a complete answer in the format specified in the EXAMPLE section

Begin execution now.`

// PlanningPrompt renders the planning instruction for request and schema context.
func PlanningPrompt(request, schemaContext string) string {
	return fmt.Sprintf(planningTemplate, request, schemaContext)
}

// ExecutionPrompt renders the seed message of the execution loop.
func ExecutionPrompt(request, planDocument string) string {
	return fmt.Sprintf(executionTemplate, request, planDocument)
}

// MissingSections reports which plan headings are absent from doc.
func MissingSections(doc string) []string {
	upper := strings.ToUpper(doc)
	var missing []string
	for _, section := range PlanSections {
		if !strings.Contains(upper, section) {
			missing = append(missing, section)
		}
	}
	return missing
}
