package web

import (
	"strconv"
	"strings"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func roomStatusLabel(room RoomSummary) string {
	switch {
	case room.Status == "closed":
		return "Closed"
	case room.Phase != "":
		return "Round " + itoa(room.Round) + " · " + strings.ToUpper(room.Phase[:1]) + room.Phase[1:]
	default:
		return "Waiting for players"
	}
}
