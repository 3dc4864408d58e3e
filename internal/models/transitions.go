package models

var transitionMap = map[string][]string{
	"ready":    {StatusWaiting, StatusReady},
	"ask":      {StatusWaiting, StatusReady},
	"arrive":   {StatusWaiting, StatusReady},
	"cancel":   {StatusWaiting, StatusReady},
	"undo":     {StatusArrived, StatusCancelled},
	"call":     {StatusWaiting, StatusReady},
	"question": {StatusWaiting, StatusReady},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
