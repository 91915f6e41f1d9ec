package bridge

// Wire contract with the inference worker: one JSON object per message over
// the duplex socket, strictly request/response.

type analyzeRequest struct {
	Type     string    `json:"type"`
	Features []float64 `json:"features"`
}

type initializeRequest struct {
	Type     string `json:"type"`
	ModelDir string `json:"model_dir"`
}

type shutdownRequest struct {
	Type string `json:"type"`
}

type wirePrediction struct {
	Level             string  `json:"level"`
	Confidence        float64 `json:"confidence"`
	TriggeredFeatures string  `json:"triggered_features"`
}

type workerResponse struct {
	Status          string          `json:"status"`
	Message         string          `json:"message,omitempty"`
	Prediction      *wirePrediction `json:"prediction,omitempty"`
	ShouldIntervene bool            `json:"should_intervene,omitempty"`
}

const statusOK = "ok"
