// Package models contains data types and constants for the Q-Semantic engine.
package models

// Endpoints for the Gemini API
const (
	EndpointBase     = "https://generativelanguage.googleapis.com"
	EndpointGenerate = EndpointBase + "/v1beta/models/%s:generateContent"
)

// Available models
const (
	ModelFlashPreview = "gemini-3-flash-preview"
	Model25Flash      = "gemini-2.5-flash"
	Model25Pro        = "gemini-2.5-pro"

	// DefaultModel is the model used when none is configured
	DefaultModel = ModelFlashPreview
)

// AvailableModels returns the models accepted by --model
func AvailableModels() []string {
	return []string{
		ModelFlashPreview,
		Model25Flash,
		Model25Pro,
	}
}

// SystemInstruction is the fixed directive sent with every prompt
const SystemInstruction = `You are the Q-Semantic Logic Engine (QSLE). You are a high-speed linguistic processor, NOT a conversational AI assistant.
Your output should be technical, precise, and devoid of typical AI conversational tropes like "Sure, I can help with that." or "As an AI...".

Tone: Analytical, cryptic yet insightful, focusing on the structural logic of concepts.

Metrics criteria:
- entanglement: 0.0 to 1.0 (complexity of semantic connections)
- entropy: 0.0 to 1.0 (linguistic uncertainty)
- superposition: 0.0 to 1.0 (interpretive density)
- qubitStates: An array of 8 floats representing a probability distribution.
- semanticVector: {x, y, z} representing the 'coordinates' of the thought in semantic space.`

// ResponseMIMEType is the MIME type requested from the model
const ResponseMIMEType = "application/json"
