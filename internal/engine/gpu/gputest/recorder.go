// Package gputest provides a gpu.Device that records calls instead of talking to a driver.
package gputest

import (
	"fmt"
	"sync"

	"github.com/Faultbox/ga-engine/internal/engine/gpu"
)

// Upload is one recorded BufferData call.
type Upload struct {
	Target gpu.BufferTarget
	Buffer uint32
	VAO    uint32 // geometry object bound at upload time
	Data   any
	Usage  gpu.Usage
}

// Attrib is one recorded attribute layout on a geometry object.
type Attrib struct {
	Buffer     uint32 // array buffer bound when the pointer was set
	Components int32
	Enabled    bool
}

// Recorder implements gpu.Device with in-memory handle accounting.
type Recorder struct {
	mu sync.Mutex

	next       uint32
	vaos       map[uint32]bool
	buffers    map[uint32]bool
	deleted    map[uint32]int
	boundVAO   uint32
	boundArray uint32

	// Uploads lists every BufferData call in order.
	Uploads []Upload
	// Attribs maps geometry object -> slot -> layout.
	Attribs map[uint32]map[uint32]Attrib
	// Calls is the ordered method log ("GenVertexArray", "BufferData", ...).
	Calls []string

	pendingErr gpu.ErrorCode
}

var _ gpu.Device = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		vaos:    make(map[uint32]bool),
		buffers: make(map[uint32]bool),
		deleted: make(map[uint32]int),
		Attribs: make(map[uint32]map[uint32]Attrib),
	}
}

// FailNext makes the next Error call report code.
func (r *Recorder) FailNext(code gpu.ErrorCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingErr = code
}

// Live returns the number of allocated and not yet deleted handles.
func (r *Recorder) Live() (vaos, buffers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vaos), len(r.buffers)
}

// Deletions returns how many times handle was deleted.
func (r *Recorder) Deletions(handle uint32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleted[handle]
}

// BoundVAO returns the currently bound geometry object.
func (r *Recorder) BoundVAO() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundVAO
}

// UploadsFor returns the uploads made while vao was bound.
func (r *Recorder) UploadsFor(vao uint32) []Upload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Upload
	for _, u := range r.Uploads {
		if u.VAO == vao {
			out = append(out, u)
		}
	}
	return out
}

func (r *Recorder) GenVertexArray() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "GenVertexArray")
	r.next++
	r.vaos[r.next] = true
	return r.next
}

func (r *Recorder) BindVertexArray(vao uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "BindVertexArray")
	if vao != 0 && !r.vaos[vao] {
		panic(fmt.Sprintf("gputest: bind of unknown vertex array %d", vao))
	}
	r.boundVAO = vao
}

func (r *Recorder) DeleteVertexArray(vao uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "DeleteVertexArray")
	delete(r.vaos, vao)
	r.deleted[vao]++
	if r.boundVAO == vao {
		r.boundVAO = 0
	}
}

func (r *Recorder) GenBuffers(n int) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "GenBuffers")
	ids := make([]uint32, n)
	for i := range ids {
		r.next++
		r.buffers[r.next] = true
		ids[i] = r.next
	}
	return ids
}

func (r *Recorder) DeleteBuffers(ids []uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "DeleteBuffers")
	for _, id := range ids {
		delete(r.buffers, id)
		r.deleted[id]++
	}
}

func (r *Recorder) BufferData(target gpu.BufferTarget, id uint32, data any, usage gpu.Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "BufferData")
	if !r.buffers[id] {
		panic(fmt.Sprintf("gputest: upload to unknown buffer %d", id))
	}
	if target == gpu.ArrayBuffer {
		r.boundArray = id
	}
	r.Uploads = append(r.Uploads, Upload{Target: target, Buffer: id, VAO: r.boundVAO, Data: data, Usage: usage})
}

func (r *Recorder) VertexAttribPointer(slot uint32, components int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "VertexAttribPointer")
	slots := r.slots(r.boundVAO)
	a := slots[slot]
	a.Buffer = r.boundArray
	a.Components = components
	slots[slot] = a
}

func (r *Recorder) EnableVertexAttribArray(slot uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "EnableVertexAttribArray")
	slots := r.slots(r.boundVAO)
	a := slots[slot]
	a.Enabled = true
	slots[slot] = a
}

func (r *Recorder) Error() gpu.ErrorCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, "Error")
	code := r.pendingErr
	r.pendingErr = gpu.NoError
	return code
}

func (r *Recorder) slots(vao uint32) map[uint32]Attrib {
	s, ok := r.Attribs[vao]
	if !ok {
		s = make(map[uint32]Attrib)
		r.Attribs[vao] = s
	}
	return s
}
