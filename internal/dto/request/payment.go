package request

// VerifyPaymentRequest holds the tx_ref from the path plus the optional
// parameters the gateway appends when it calls back.
type VerifyPaymentRequest struct {
	TxRef  string `json:"tx_ref" validate:"required,max=100"`
	TrxRef string `json:"trx_ref"`
	RefID  string `json:"ref_id"`
	Status string `json:"status"`
}
