package agent

import "encoding/json"

// Tool describes one browser capability advertised to the remote agent.
// The input schema is declared client-side and sent with every exchange so
// the agent knows the exact toolset it may call.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// BrowserTools returns the browser automation tool catalog.
func BrowserTools() []Tool {
	return []Tool{
		{
			Name:        "searchWeb",
			Description: "Search the web for information using a search engine",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query"},
					"numResults": {"type": "number", "description": "Number of results to return (default 5)"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "navigateToUrl",
			Description: "Navigate to a specific URL",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"url": {"type": "string", "format": "uri", "description": "The URL to navigate to"}
				},
				"required": ["url"]
			}`),
		},
		{
			Name:        "fillForm",
			Description: "Fill out a form on a webpage",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"formData": {
						"type": "object",
						"additionalProperties": {"type": "string"},
						"description": "Key-value pairs of form fields and their values"
					},
					"submitForm": {"type": "boolean", "description": "Whether to submit the form after filling"}
				},
				"required": ["formData"]
			}`),
		},
		{
			Name:        "clickElement",
			Description: "Click on an element on the page",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"selector": {"type": "string", "description": "CSS selector or description of the element to click"}
				},
				"required": ["selector"]
			}`),
		},
		{
			Name:        "extractData",
			Description: "Extract specific data from the current page",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"dataType": {"type": "string", "description": "Type of data to extract (e.g., \"prices\", \"titles\", \"links\")"},
					"selector": {"type": "string", "description": "Optional CSS selector to narrow down extraction"}
				},
				"required": ["dataType"]
			}`),
		},
		{
			Name:        "takeScreenshot",
			Description: "Take a screenshot of the current page or element",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"fullPage": {"type": "boolean", "description": "Whether to capture the full page"},
					"selector": {"type": "string", "description": "Optional selector for specific element"}
				}
			}`),
		},
		{
			Name:        "scrollPage",
			Description: "Scroll the page",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"direction": {"type": "string", "enum": ["up", "down", "top", "bottom"], "description": "Scroll direction"},
					"amount": {"type": "number", "description": "Amount to scroll in pixels"}
				},
				"required": ["direction"]
			}`),
		},
		{
			Name:        "waitForElement",
			Description: "Wait for an element to appear on the page",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"selector": {"type": "string", "description": "CSS selector of the element to wait for"},
					"timeout": {"type": "number", "description": "Timeout in milliseconds (default 5000)"}
				},
				"required": ["selector"]
			}`),
		},
	}
}

func schema(s string) json.RawMessage {
	compact := make(map[string]any)
	if err := json.Unmarshal([]byte(s), &compact); err != nil {
		panic("invalid tool schema: " + err.Error())
	}
	out, _ := json.Marshal(compact)
	return out
}
