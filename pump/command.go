package pump

import (
	"fmt"
	"github.com/shopspring/decimal"
	"strings"
)

const (
	verbSet     = "SET"
	verbGet     = "GET"
	queryStatus = "STATUS"
)

// BuildSetCommand renders a SET command with the parameters in the order
// given. Keys and values are not checked; the controller decides what it
// accepts.
func BuildSetCommand(id ID, params ...Param) string {
	bld := strings.Builder{}
	bld.WriteString(verbSet)
	bld.WriteString(" PUMP=")
	bld.WriteString(id.String())
	for _, p := range params {
		bld.WriteByte(' ')
		bld.WriteString(p.String())
	}
	return bld.String()
}

func BuildGetStatusCommand(id ID) string {
	return verbGet + " PUMP=" + id.String() + " " + queryStatus
}

// formatValue renders numbers in their shortest exact decimal form so that
// 500.0 goes out as 500 and 8.17 stays 8.17.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return decimal.NewFromFloat(x).String()
	case float32:
		return decimal.NewFromFloat32(x).String()
	case decimal.Decimal:
		return x.String()
	case bool:
		return onOff(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func runStop(b bool) string {
	if b {
		return "RUN"
	}
	return "STOP"
}
