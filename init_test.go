package synth

import "testing"

func TestInit(t *testing.T) {
	var i audioIniter
	didPanic := false
	func() {
		defer func() {
			if x := recover(); x != nil {
				didPanic = true
			}
		}()
		Init(i, Params{})
	}()
	if !didPanic {
		t.Error("expected panic")
	}
	if i.inited {
		t.Error("expected not inited")
	}

	Init(&i, Params{})
	if !i.inited {
		t.Error("expected inited")
	}
}

func TestInitDescendsIntoFields(t *testing.T) {
	type pair struct {
		A, B *audioIniter
		Osc  SineOsc
	}
	p := pair{A: new(audioIniter), B: new(audioIniter)}
	Init(&p, Params{SampleRate: 44100})
	if !p.A.inited || !p.B.inited {
		t.Error("expected fields inited")
	}
	if p.Osc.Params.SampleRate != 44100 {
		t.Errorf("osc sample rate = %v, want 44100", p.Osc.Params.SampleRate)
	}
}

func TestInitVoiceSlice(t *testing.T) {
	voices := []Voice{new(SineWaveVoice), new(SineWaveVoice)}
	Init(voices, Params{SampleRate: 22050})
	for i, v := range voices {
		if r := v.base().SampleRate(); r != 22050 {
			t.Errorf("voice %d sample rate = %v, want 22050", i, r)
		}
	}
}

func TestInitBufferSize(t *testing.T) {
	var graph struct {
		Delay   EventDelay
		Filters []DCFilter
		Voice   Voice
		Other   interface{}
	}
	graph.Filters = make([]DCFilter, 2)
	graph.Voice = new(SineWaveVoice)
	other := new(audioIniter)
	graph.Other = other

	p := Params{SampleRate: 44100, BufferSize: 256}
	Init(&graph, p)
	if graph.Delay.Params != p {
		t.Errorf("delay params = %+v, want %+v", graph.Delay.Params, p)
	}
	if other.params != p {
		t.Errorf("params through interface = %+v, want %+v", other.params, p)
	}
	if r := graph.Voice.base().SampleRate(); r != 44100 {
		t.Errorf("voice sample rate = %v, want 44100", r)
	}
	for i := range graph.Filters {
		if graph.Filters[i].a == 0 {
			t.Errorf("filter %d not initialised", i)
		}
	}
}

type audioIniter struct {
	inited bool
	params Params
}

func (i *audioIniter) InitAudio(p Params) {
	i.inited = true
	i.params = p
}
