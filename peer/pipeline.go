package peer

import (
	"log"

	"github.com/Drwalin/ICon7-sub000/buffer"
	"github.com/Drwalin/ICon7-sub000/rpc"
	"github.com/Drwalin/ICon7-sub000/wireframe"
)

// OnOpen transitions a freshly-accepted/connected Peer into the READY
// state. Loop-thread only; called once by the owning Host after its
// transport-level handshake (if any) completes.
func (p *Peer) OnOpen() {
	p.setReady()
}

// OnConnectError marks a Peer that never became ready because the
// connection attempt itself failed. onDisconnect is deliberately not
// fired here: onConnect never fired either, so there is nothing to pair
// it with (§7 "connect failures").
func (p *Peer) OnConnectError() {
	p.setConnectError()
	p.setClosed()
}

// OnData feeds newly-read bytes through this Peer's frame decoder,
// dispatching each complete frame as it's assembled. Loop-thread only.
func (p *Peer) OnData(data []byte) {
	p.decoder.PushData(data, p.onFrame)
}

func (p *Peer) onFrame(buf buffer.Buffer, headerSize uint32) {
	raw := buf.Data()
	flags := wireframe.PacketFlags(raw, rpc.FlagReliable)
	p.stats.AddReceived(len(raw), 1)

	// buf is owned by the decoder's reusable accumulator (wireframe.OnFrame's
	// doc comment) and gets overwritten in place as soon as the next byte for
	// the following frame arrives. A registered message's execution queue, or
	// a Call's onReturn queue (§4.H/§4.I), can defer decoding this frame's
	// body past that point, so it's copied out here rather than threading a
	// buf.Clone() handle through Reader/callbackEntry just to Release() it
	// later — the same copy-before-handoff idiom host.Host.readLoop already
	// uses for bytes crossing into a command.
	body := append([]byte(nil), raw[headerSize:]...)

	if flags.Kind() == rpc.KindProtocolControl {
		p.onControlSequence(body)
		return
	}

	p.host.Environment().OnReceive(p, rpc.NewReader(body), flags)
}

// onControlSequence handles a KindProtocolControl frame: its first body
// byte is a control opcode. Values <= 0x7F have no meaning defined yet;
// values >= 0x80 are reserved for backend-specific extensions and
// delegated to onProtocolControl if one is installed.
func (p *Peer) onControlSequence(body []byte) {
	if len(body) == 0 {
		log.Printf("peer: empty protocol control frame")
		return
	}
	opcode := body[0]
	rest := body[1:]
	if opcode < 0x80 {
		log.Printf("peer: undefined protocol control opcode %#x", opcode)
		return
	}
	if p.onProtocolControl != nil {
		p.onProtocolControl(p, opcode, rest)
		return
	}
	log.Printf("peer: unhandled backend-extension opcode %#x", opcode)
}

// OnWritable flushes whatever is queued for send when the transport
// reports it can accept more data, matching
// icon7::Peer::_InternalOnWritable. It no-ops once the peer is closed or
// disconnecting with nothing left to drain, and returns whether the
// flush fully drained the queue (false means backpressure remains or the
// peer wasn't eligible to send).
func (p *Peer) OnWritable() bool {
	p.stats.IncOnWritable()
	if p.IsClosed() {
		return false
	}
	return p.flushQueuedSends()
}

// OnTimeout and OnLongTimeout both simply disconnect the peer, matching
// icon7::Peer::_InternalOnTimeout/_InternalOnLongTimeout: a connection
// that misses either heartbeat deadline is treated the same way.
func (p *Peer) OnTimeout()     { p.Disconnect() }
func (p *Peer) OnLongTimeout() { p.Disconnect() }

// OnClosedByTransport is called by the owning socket backend when it
// detects the connection closed or errored out from underneath the Peer
// (rather than the Peer itself initiating Disconnect). It runs teardown
// immediately since the backend only calls this from the loop thread.
func (p *Peer) OnClosedByTransport() {
	p.setClosedByTransport()
	if !p.setDisconnecting() {
		return
	}
	p.executeDisconnect()
}

// dequeueToLocalQueue refills local from the cross-thread queued slice,
// up to maxLocalQueueSize frames, but only once local is fully drained,
// matching icon7::Peer::DequeueToLocalQueue.
func (p *Peer) dequeueToLocalQueue() {
	if p.localOffset != len(p.local) {
		return
	}
	p.sendMu.Lock()
	n := len(p.queued)
	if n > maxLocalQueueSize {
		n = maxLocalQueueSize
	}
	if n == 0 {
		p.sendMu.Unlock()
		p.local = p.local[:0]
		p.localOffset = 0
		return
	}
	p.local = append(p.local[:0], p.queued[:n]...)
	copy(p.queued, p.queued[n:])
	p.queued = p.queued[:len(p.queued)-n]
	p.sendMu.Unlock()
	p.localOffset = 0
	p.sendingQueueSize.Add(-int32(n))
}

// flushQueuedSends drains local (refilling from the cross-thread queue as
// needed) for up to maxFlushIterations passes, coalescing consecutive
// whole frames into the staging buffer to cut down on Write calls, and
// falling back to a direct Write for any single frame too large to stage.
// It stops at the first short write (backpressure) or transport error,
// matching icon7::Peer::_InternalFlushQueuedSends.
func (p *Peer) flushQueuedSends() bool {
	for iter := 0; iter < maxFlushIterations; iter++ {
		p.dequeueToLocalQueue()
		if p.localOffset == len(p.local) {
			return true
		}

		batchStart := p.localOffset
		p.stageUsed = 0
		batchCount := 0
		for p.localOffset < len(p.local) {
			f := &p.local[p.localOffset]
			if f.bytesSent != 0 {
				break
			}
			data := f.buf.Data()
			if len(data) > len(p.stage) {
				break
			}
			if batchCount > 0 && p.stageUsed+len(data) > len(p.stage) {
				break
			}
			copy(p.stage[p.stageUsed:], data)
			p.stageUsed += len(data)
			p.localOffset++
			batchCount++
		}

		if batchCount > 0 {
			if !p.writeBatch(batchStart, batchCount) {
				return false
			}
			continue
		}

		if !p.writeSingle() {
			return false
		}
	}
	return false
}

func (p *Peer) hasMoreAfter(idx int) bool {
	return idx < len(p.local) || p.sendingQueueSize.Load() > 0
}

// writeBatch flushes the batchCount whole frames staged starting at
// local[batchStart], releasing each on full success. A short write is
// attributed back to individual frames so any not-yet-sent remainder is
// retried (possibly mid-frame) on the next flush pass.
func (p *Peer) writeBatch(batchStart, batchCount int) bool {
	hasMore := p.hasMoreAfter(batchStart + batchCount)
	n, err := p.sock.Write(p.stage[:p.stageUsed], hasMore)
	if err != nil {
		log.Printf("peer: write: %v", err)
		p.stats.IncErrors()
		p.Disconnect()
		return false
	}
	if n == p.stageUsed {
		p.stats.AddSent(n, batchCount)
		for i := 0; i < batchCount; i++ {
			p.local[batchStart+i].buf.Release()
		}
		return true
	}

	sent := n
	i := 0
	for i < batchCount {
		sz := len(p.local[batchStart+i].buf.Data())
		if sent < sz {
			break
		}
		p.local[batchStart+i].buf.Release()
		sent -= sz
		i++
	}
	if i < batchCount {
		p.local[batchStart+i].bytesSent = uint32(sent)
	}
	p.localOffset = batchStart + i
	return false
}

// writeSingle flushes local[localOffset] directly: reached only when that
// frame is too large to stage, or is a partially-sent frame carried over
// from a previous short write.
func (p *Peer) writeSingle() bool {
	f := &p.local[p.localOffset]
	data := f.buf.Data()[f.bytesSent:]
	hasMore := p.hasMoreAfter(p.localOffset + 1)
	n, err := p.sock.Write(data, hasMore)
	if err != nil {
		log.Printf("peer: write: %v", err)
		p.stats.IncErrors()
		p.Disconnect()
		return false
	}
	if n == len(data) {
		p.stats.AddSent(n, 1)
		f.buf.Release()
		p.localOffset++
		return true
	}
	f.bytesSent += uint32(n)
	return false
}
