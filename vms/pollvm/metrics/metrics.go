// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminopolls/vms/pollvm/dao"
	"github.com/chain4travel/caminopolls/vms/pollvm/state"
	"github.com/chain4travel/caminopolls/vms/pollvm/txs"
)

var _ Metrics = (*metrics)(nil)

// rejection reasons, in match order
var rejectReasons = []struct {
	err    error
	reason string
}{
	{txs.ErrInvalidSignature, "invalid_signature"},
	{dao.ErrNotEnoughOptions, "not_enough_options"},
	{dao.ErrTooManyOptions, "too_many_options"},
	{dao.ErrInvalidTimeRange, "invalid_time_range"},
	{dao.ErrInvalidQuestionLen, "invalid_question_len"},
	{dao.ErrInvalidOptionLen, "invalid_option_len"},
	{dao.ErrPollNotActive, "poll_not_active"},
	{dao.ErrInvalidChoice, "invalid_choice"},
	{dao.ErrPollNotFound, "poll_not_found"},
	{state.ErrAlreadyExists, "already_exists"},
	{database.ErrNotFound, "not_found"},
}

type Metrics interface {
	metric.APIInterceptor

	// Mark that the given tx was executed and its record written.
	MarkAccepted(*txs.Tx) error
	// Mark that a tx was refused with [err].
	MarkRejected(err error)
	// Set the slot last observed by the executor.
	SetSlot(slot uint64)
}

func New(
	namespace string,
	registerer prometheus.Registerer,
) (Metrics, error) {
	txMetrics, err := newTxMetrics(namespace, registerer)
	m := &metrics{
		txMetrics: txMetrics,

		numTxsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "txs_rejected",
				Help:      "Number of transactions rejected, by reason",
			},
			[]string{"reason"},
		),
		currentSlot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_slot",
			Help:      "Slot observed by the last executed transaction",
		}),
	}

	errs := wrappers.Errs{Err: err}
	apiRequestMetrics, err := metric.NewAPIInterceptor(namespace, registerer)
	m.APIInterceptor = apiRequestMetrics
	errs.Add(
		err,

		registerer.Register(m.numTxsRejected),
		registerer.Register(m.currentSlot),
	)

	return m, errs.Err
}

type metrics struct {
	metric.APIInterceptor

	txMetrics *txMetrics

	numTxsRejected *prometheus.CounterVec
	currentSlot    prometheus.Gauge
}

func (m *metrics) MarkAccepted(tx *txs.Tx) error {
	return tx.Unsigned.Visit(m.txMetrics)
}

func (m *metrics) MarkRejected(err error) {
	m.numTxsRejected.WithLabelValues(RejectReason(err)).Inc()
}

func (m *metrics) SetSlot(slot uint64) {
	m.currentSlot.Set(float64(slot))
}

// RejectReason maps [err] to a low cardinality label value.
func RejectReason(err error) string {
	for _, r := range rejectReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
