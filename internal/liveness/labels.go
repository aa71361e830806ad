package liveness

import "fmt"

var pendingLabels = map[Signal]string{
	SignalBlink:    "Waiting for blink...",
	SignalSmile:    "Try smiling...",
	SignalHeadTurn: "Turn head left/right...",
	SignalMovement: "Any movement...",
}

var progressLabels = map[Signal]string{
	SignalSmile:    "Smiling...",
	SignalHeadTurn: "Turning...",
	SignalMovement: "Moving...",
}

var detectedLabels = map[Signal]string{
	SignalBlink:    "Blink detected!",
	SignalSmile:    "Smile detected!",
	SignalHeadTurn: "Head turn detected!",
	SignalMovement: "Movement detected!",
}

var failedLabels = map[Signal]string{
	SignalBlink:    "No blink detected",
	SignalSmile:    "No smile detected",
	SignalHeadTurn: "No head turn detected",
	SignalMovement: "No movement detected",
}

func label(sig Signal, st SignalStatus) string {
	switch st.State {
	case StateClosing:
		return "Eyes closing..."
	case StateProgress:
		return fmt.Sprintf("%s %d/%d", progressLabels[sig], st.Progress, st.Required)
	case StateDetected:
		return detectedLabels[sig]
	case StateFailed:
		return failedLabels[sig]
	}
	return pendingLabels[sig]
}
