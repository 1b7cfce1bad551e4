package protocol

import "testing"

func TestEnvelopeDecodeBody(t *testing.T) {
	env := NewEnvelope("topic_test1", TypeEvolutionApplied, EvolutionApplied{
		TopicID:     "topic_test1",
		FromVersion: 1,
		ToVersion:   2,
		Reason:      "low save rate",
		SaveRate:    0.25,
		SampleSize:  8,
	})

	data, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Type != TypeEvolutionApplied || decoded.TopicID != "topic_test1" {
		t.Errorf("envelope header mangled: %+v", decoded)
	}

	// Over the wire the body arrives as a generic map; DecodeBody recovers
	// the typed struct.
	body, err := DecodeBody[EvolutionApplied](decoded)
	if err != nil {
		t.Fatal(err)
	}
	if body.FromVersion != 1 || body.ToVersion != 2 || body.Reason != "low save rate" {
		t.Errorf("body mangled: %+v", body)
	}
}

func TestDecodeBodyPassthrough(t *testing.T) {
	env := NewEnvelope("", TypeSubscribe, Subscribe{TopicID: "topic_test1"})

	// A locally constructed envelope still has the concrete body type.
	body, err := DecodeBody[Subscribe](env)
	if err != nil {
		t.Fatal(err)
	}
	if body.TopicID != "topic_test1" {
		t.Errorf("unexpected body: %+v", body)
	}
}
