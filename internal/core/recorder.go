package core

// Recorder observes matching activity. Implementations must be cheap; they run inline.
type Recorder interface {
	Fill(symbol string, aggressive bool)
	LimitRejected(symbol string)
	TickProcessed()
}

type nopRecorder struct{}

func (nopRecorder) Fill(string, bool)    {}
func (nopRecorder) LimitRejected(string) {}
func (nopRecorder) TickProcessed()       {}
