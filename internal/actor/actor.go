package actor

// Kind tags the authenticated identity attached to every request.
type Kind string

const (
	KindConsumer Kind = "consumer"
	KindProducer Kind = "producer"
	KindStaff    Kind = "staff"
)

// Actor is the tagged identity handed to the services. ProducerID is set
// only for KindProducer and references the producer profile row.
type Actor struct {
	Kind       Kind
	UserID     uint
	ProducerID uint
}

func Consumer(userID uint) Actor {
	return Actor{Kind: KindConsumer, UserID: userID}
}

func Producer(userID, producerID uint) Actor {
	return Actor{Kind: KindProducer, UserID: userID, ProducerID: producerID}
}

func Staff(userID uint) Actor {
	return Actor{Kind: KindStaff, UserID: userID}
}

func (a Actor) IsConsumer() bool { return a.Kind == KindConsumer }
func (a Actor) IsProducer() bool { return a.Kind == KindProducer }
func (a Actor) IsStaff() bool    { return a.Kind == KindStaff }

func (a Actor) Role() string { return string(a.Kind) }
