package booking

import "github.com/iliyamo/studio-booking/internal/model"

func modelBooking(user string, session uint64) model.Booking {
	return model.Booking{UserID: user, SessionID: session}
}

func modelEntry(user string, session uint64, pos int) model.WaitlistEntry {
	return model.WaitlistEntry{UserID: user, SessionID: session, Position: pos}
}
