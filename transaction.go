package redis

// Transaction batches commands under MULTI/EXEC. Build one from a Client,
// queue commands with Queue, then call Exec to run the whole batch as one
// pipelined round trip and collect per-command replies in order.
type Transaction struct {
	cl        *Client
	reqs      []*request
	buildErrs []error
}

// Multi starts building a transaction against cl. Nothing is sent to the
// server until Exec is called.
func (cl *Client) Multi() *Transaction {
	return &Transaction{cl: cl}
}

// Queue appends a command to the transaction. Any argument-validation
// error is deferred until Exec, so callers can chain Queue calls freely.
func (tx *Transaction) Queue(id CommandID, args ...[]byte) *Transaction {
	req := newRequest(id)
	if err := req.build(args...); err != nil {
		tx.buildErrs = append(tx.buildErrs, err)
		return tx
	}
	tx.reqs = append(tx.reqs, req)
	return tx
}

// AddCommand queues an arbitrary, already-named command (argv[0] is the
// command name) into the transaction — the raw-command counterpart to
// Queue for callers building a command dynamically rather than through a
// known CommandID. It reports whether the command was accepted into the
// batch; unlike the original client family's non-format overload, which
// always reported failure here regardless of outcome, a successfully built
// command reports true.
func (tx *Transaction) AddCommand(argv ...[]byte) bool {
	req, err := buildRawRequest(argv)
	if err != nil {
		tx.buildErrs = append(tx.buildErrs, err)
		return false
	}
	tx.reqs = append(tx.reqs, req)
	return true
}

// Watch marks keys so a subsequent transaction aborts if any of them
// changes before Exec. Must be called before Multi/Queue, outside MULTI.
func (cl *Client) Watch(keys ...string) error {
	return cl.commandOK(CmdWATCH, stringsToBytes(keys)...)
}

// Unwatch clears any keys previously marked with Watch.
func (cl *Client) Unwatch() error {
	return cl.commandOK(CmdUNWATCH)
}

// Exec runs MULTI, every queued command, and EXEC as a single pipelined
// batch, and returns the per-command replies in queue order. ok is false
// without an error when a watched key changed and the server discarded the
// whole transaction (the "*-1" EXEC reply) — a failed optimistic
// transaction, not a protocol fault.
func (tx *Transaction) Exec() (replies []Reply, ok bool, err error) {
	if len(tx.buildErrs) > 0 {
		return nil, false, tx.buildErrs[0]
	}

	multi := newRequest(CmdMULTI)
	if err := multi.build(); err != nil {
		return nil, false, err
	}
	execReq := newRequest(CmdEXEC)
	if err := execReq.build(); err != nil {
		return nil, false, err
	}

	batch := make([]*request, 0, len(tx.reqs)+2)
	batch = append(batch, multi)
	batch = append(batch, tx.reqs...)
	batch = append(batch, execReq)

	tx.cl.mu.Lock()
	defer tx.cl.mu.Unlock()
	if tx.cl.closed {
		return nil, false, ErrClosed
	}
	if err := tx.cl.ensureConnectedLocked(); err != nil {
		return nil, false, err
	}

	tx.cl.stats.PipelineDepth = len(batch)
	results, err := tx.cl.conn.pipelineExec(batch)
	if err != nil {
		err = hostError(tx.cl.conn.addr, err)
		tx.cl.stats.LastError = err.Error()
		return nil, false, err
	}

	if serverErr, isErr := results[0].(Err); isErr {
		return nil, false, serverErr.asServerError()
	}

	last := results[len(results)-1]
	if serverErr, isErr := last.(Err); isErr {
		return nil, false, serverErr.asServerError()
	}
	smb, isSMB := last.(*SpecialMultiBulk)
	if !isSMB {
		return nil, false, newMismatchError("EXEC", KindSpecialMultiBulk, last.Kind())
	}
	if smb.IsNil() {
		return nil, false, nil
	}
	return smb.Items, true, nil
}

// Discard abandons any transaction already open on the connection (one
// started implicitly by a prior MULTI that was never followed by Exec).
func (cl *Client) Discard() error {
	return cl.commandOK(CmdDISCARD)
}
