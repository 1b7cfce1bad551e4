package protocol

type MessageType uint16

const (
	TypeError          MessageType = 1
	TypeSubscribe      MessageType = 10
	TypeUnsubscribe    MessageType = 11
	TypeSubscribeAck   MessageType = 12
	TypeUnsubscribeAck MessageType = 13

	TypeEpisodeFinished  MessageType = 20
	TypeEvolutionApplied MessageType = 21
	TypeStrategyPromoted MessageType = 22
)

type Error struct {
	Code    string `msgpack:"code" json:"code"`
	Message string `msgpack:"message" json:"message"`
}

type Subscribe struct {
	TopicID string `msgpack:"topicId" json:"topicId"`
}

type EpisodeFinished struct {
	EpisodeID       string `msgpack:"episodeId" json:"episodeId"`
	TopicID         string `msgpack:"topicId" json:"topicId"`
	StrategyVersion int    `msgpack:"strategyVersion" json:"strategyVersion"`
	Status          string `msgpack:"status" json:"status"`
}

type EvolutionApplied struct {
	TopicID     string  `msgpack:"topicId" json:"topicId"`
	FromVersion int     `msgpack:"fromVersion" json:"fromVersion"`
	ToVersion   int     `msgpack:"toVersion" json:"toVersion"`
	Reason      string  `msgpack:"reason" json:"reason"`
	SaveRate    float64 `msgpack:"saveRate" json:"saveRate"`
	SampleSize  int     `msgpack:"sampleSize" json:"sampleSize"`
}

type StrategyPromoted struct {
	TopicID string `msgpack:"topicId" json:"topicId"`
	Version int    `msgpack:"version" json:"version"`
}
