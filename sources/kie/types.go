package kie

// Result is the terminal outcome of one generation task. Success is false for
// upstream failures, timeouts, and unparseable results alike.
type Result struct {
	TaskID     string
	Success    bool
	ResultURLs []string
	Message    string
	ErrorCode  string
}

type createTaskRequest struct {
	Model string         `json:"model"`
	Input map[string]any `json:"input"`
}

type createTaskResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type recordInfoResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID     string `json:"taskId"`
		State      string `json:"state"`
		ResultJSON string `json:"resultJson"`
		FailCode   string `json:"failCode"`
		FailMsg    string `json:"failMsg"`
	} `json:"data"`
}

type resultPayload struct {
	ResultURLs []string `json:"resultUrls"`
}

const (
	stateSuccess = "success"
	stateFail    = "fail"
)

func stateInProgress(state string) bool {
	switch state {
	case "waiting", "queued", "queueing", "queuing", "generating", "processing":
		return true
	}
	return false
}
