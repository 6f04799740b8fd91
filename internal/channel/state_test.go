package channel

import "testing"

func TestTransition(t *testing.T) {
	cases := []struct {
		name       string
		from       State
		ev         event
		budgetLeft bool
		want       State
	}{
		{"connect succeeds", StateConnecting, eventEstablished, true, StateOpen},
		{"connect fails with budget", StateConnecting, eventConnLost, true, StateRetryScheduled},
		{"connect fails without budget", StateConnecting, eventConnLost, false, StateTerminal},
		{"open loses connection with budget", StateOpen, eventConnLost, true, StateRetryScheduled},
		{"open loses connection without budget", StateOpen, eventConnLost, false, StateTerminal},
		{"timer fires", StateRetryScheduled, eventTimerFired, true, StateConnecting},
		{"close while connecting", StateConnecting, eventCloseRequested, true, StateClosed},
		{"close while open", StateOpen, eventCloseRequested, true, StateClosed},
		{"close while retry pending", StateRetryScheduled, eventCloseRequested, true, StateClosed},
		{"close when already closed", StateClosed, eventCloseRequested, true, StateClosed},
		{"close after terminal", StateTerminal, eventCloseRequested, true, StateTerminal},
		{"terminal absorbs established", StateTerminal, eventEstablished, true, StateTerminal},
		{"terminal absorbs conn lost", StateTerminal, eventConnLost, true, StateTerminal},
		{"terminal absorbs timer", StateTerminal, eventTimerFired, true, StateTerminal},
		{"closed absorbs established", StateClosed, eventEstablished, true, StateClosed},
		{"closed absorbs conn lost", StateClosed, eventConnLost, true, StateClosed},
		{"closed absorbs timer", StateClosed, eventTimerFired, true, StateClosed},
		{"open ignores established", StateOpen, eventEstablished, true, StateOpen},
		{"open ignores timer", StateOpen, eventTimerFired, true, StateOpen},
		{"connecting ignores timer", StateConnecting, eventTimerFired, true, StateConnecting},
		{"retry wait ignores established", StateRetryScheduled, eventEstablished, true, StateRetryScheduled},
		{"retry wait ignores conn lost", StateRetryScheduled, eventConnLost, true, StateRetryScheduled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := transition(tc.from, tc.ev, tc.budgetLeft)
			if got != tc.want {
				t.Fatalf("transition(%s, %s, %v) = %s, want %s", tc.from, tc.ev, tc.budgetLeft, got, tc.want)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateConnecting, StateOpen, StateRetryScheduled} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
	for _, s := range []State{StateTerminal, StateClosed} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func TestStateString(t *testing.T) {
	if got := StateRetryScheduled.String(); got != "retry_scheduled" {
		t.Fatalf("unexpected string: %q", got)
	}
	if got := State(99).String(); got != "unknown" {
		t.Fatalf("unexpected string for invalid state: %q", got)
	}
}
