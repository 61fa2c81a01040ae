package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		panic(err)
	}
}

// force the timezone to match the WTicket server, which renders every
// date in Dutch local time. interpreting those dates in the host's
// timezone can shift them across day boundaries.
func Now() time.Time {
	return time.Now().In(Location)
}
