package senddesc

import (
	"math"
	"math/rand"
	"time"

	"github.com/GiterLab/coap-core/message"
)

// TransParams holds the transmission constants of RFC7252 §4.8. The
// zero value is meaningless; use StandardTransParams for the RFC
// defaults.
type TransParams struct {
	AckTimeout      time.Duration
	AckRandomFactor float64
	MaxRetransmit   int
	MaxLatency      time.Duration
	ProcessingDelay time.Duration
}

// StandardTransParams returns RFC7252's default constants:
// ACK_TIMEOUT=2s, ACK_RANDOM_FACTOR=1.5, MAX_RETRANSMIT=4,
// MAX_LATENCY=100s, PROCESSING_DELAY=ACK_TIMEOUT.
func StandardTransParams() TransParams {
	return TransParams{
		AckTimeout:      2 * time.Second,
		AckRandomFactor: 1.5,
		MaxRetransmit:   4,
		MaxLatency:      100 * time.Second,
		ProcessingDelay: 2 * time.Second,
	}
}

// MaxTransmitSpan is the RFC7252 §4.8.2 derived constant: the maximum
// time from the first transmission of a Confirmable message to its
// last retransmission.
func (p TransParams) MaxTransmitSpan() time.Duration {
	v := float64(p.AckTimeout) * (math.Pow(2, float64(p.MaxRetransmit)) - 1) * p.AckRandomFactor
	return time.Duration(v)
}

// MaxTransmitWait is the maximum time from the first transmission to
// when the sender gives up on an ACK or RST.
func (p TransParams) MaxTransmitWait() time.Duration {
	v := float64(p.AckTimeout) * (math.Pow(2, float64(p.MaxRetransmit+1)) - 1) * p.AckRandomFactor
	return time.Duration(v)
}

// MaxRTT is the maximum round-trip time assumed for any two endpoints.
func (p TransParams) MaxRTT() time.Duration {
	return 2*p.MaxLatency + p.ProcessingDelay
}

// ExchangeLifetime is the time after which a Confirmable exchange's
// message-id may safely be reused.
func (p TransParams) ExchangeLifetime() time.Duration {
	return p.MaxTransmitSpan() + p.MaxRTT()
}

// NonLifetime is ExchangeLifetime's analog for Non-confirmable
// exchanges.
func (p TransParams) NonLifetime() time.Duration {
	return p.MaxTransmitSpan() + p.MaxLatency
}

// Defaults implements Descriptor's timing and option-criticality
// methods using RFC7252 defaults, for a leaf descriptor to embed.
// WriteOptions/WritePayload/Handler are still the leaf's own
// responsibility — Defaults alone does not satisfy Descriptor.
type Defaults struct {
	params TransParams
}

// NewDefaults returns Defaults configured with StandardTransParams.
func NewDefaults() Defaults { return Defaults{params: StandardTransParams()} }

// Params returns the transmission parameters in effect.
func (d Defaults) Params() TransParams { return d.params }

// SupportsOption refuses any critical option by default (RFC7252
// §5.4.1): a response carrying an unrecognized critical option that
// this descriptor never opted into is treated as malformed.
func (d Defaults) SupportsOption(id message.OptionID) bool {
	return !message.IsCritical(id)
}

// DelayToRetransmit implements the RFC7252 §4.2 binary-backoff-with-
// jitter schedule: ACK_TIMEOUT << retransmitsSent, scaled by a random
// factor in [1, ACK_RANDOM_FACTOR).
func (d Defaults) DelayToRetransmit(retransmitsSent int) (time.Duration, bool) {
	if retransmitsSent > d.params.MaxRetransmit {
		return 0, false
	}
	ret := d.params.AckTimeout.Milliseconds() << uint(retransmitsSent)

	const jdiv = 512
	rmod := int64(jdiv * (d.params.AckRandomFactor - 1.0))
	if rmod <= 0 {
		rmod = 1
	}
	jmul := int64(jdiv) + rand.Int63n(rmod)

	return time.Duration(ret*jmul/jdiv) * time.Millisecond, true
}

// DelayToRestart reports no restart schedule by default; only observe
// registrations override this.
func (d Defaults) DelayToRestart() (time.Duration, bool) { return 0, false }

// MaxRTT returns the configured maximum round-trip time.
func (d Defaults) MaxRTT() time.Duration { return d.params.MaxRTT() }

// TransmitWaitDuration returns the configured maximum transmit wait.
func (d Defaults) TransmitWaitDuration() time.Duration { return d.params.MaxTransmitWait() }
