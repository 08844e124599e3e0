package domain

import "errors"

// ErrUnknownRoute is returned by a RouteLookup for names missing from the
// route table.
var ErrUnknownRoute = errors.New("route not registered")

// TransitState classifies a route's operating status.
type TransitState int

const (
	TransitNormal TransitState = iota
	TransitDisrupted
	TransitUnregistered
	TransitUnavailable
)

func (s TransitState) String() string {
	switch s {
	case TransitNormal:
		return "normal"
	case TransitDisrupted:
		return "disrupted"
	case TransitUnregistered:
		return "unregistered"
	default:
		return "unavailable"
	}
}

// Label is the user-facing status line shown in the transit section.
func (s TransitState) Label() string {
	switch s {
	case TransitNormal:
		return "平常運転"
	case TransitDisrupted:
		return "⚠️ 運行情報あり"
	case TransitUnregistered:
		return "未対応"
	default:
		return "情報取得エラー"
	}
}

// TransitStatus is the classified status of one route.
type TransitStatus struct {
	State  TransitState
	Detail string
}

// NormalTransit reports a route with no incidents.
func NormalTransit() TransitStatus {
	return TransitStatus{State: TransitNormal, Detail: "現在、事故・遅延に関する情報はありません。"}
}

// DisruptedTransit reports a route with an incident notice.
func DisruptedTransit(detail string) TransitStatus {
	return TransitStatus{State: TransitDisrupted, Detail: detail}
}

// UnregisteredTransit reports a route name missing from the route table.
func UnregisteredTransit() TransitStatus {
	return TransitStatus{State: TransitUnregistered, Detail: "この路線はまだ対応していません"}
}

// UnavailableTransit reports a route whose status could not be determined.
func UnavailableTransit() TransitStatus {
	return TransitStatus{State: TransitUnavailable, Detail: "路線の状態を確認できませんでした"}
}
