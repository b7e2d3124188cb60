package replication

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gomodule/redigo/redis"
	"github.com/sirupsen/logrus"

	"sls/record"
)

// replicationStream is the Redis Streams key records are replicated
// through, mirroring the single-stream-per-concern convention of
// StateReplicator-style designs.
const replicationStream = "sls-replication"

// RedisConfig configures a Redis-backed Replicator.
type RedisConfig struct {
	Host               string
	Port               string
	Password           string
	PoolMaxIdle        int
	PoolMaxActive      int
	PoolIdleTimeout    time.Duration
	DialMaxElapsedTime time.Duration
	RetentionWindow    time.Duration // how long replicated entries are retained before XTRIM
}

// Redis replicates record Updates through a Redis stream so every
// cache in a federation observes the same sequence of mutations.
type Redis struct {
	pool   *redis.Pool
	cfg    RedisConfig
	lastID string
	log    *logrus.Entry
}

func NewRedis(cfg RedisConfig, log *logrus.Entry) *Redis {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)

	pool := &redis.Pool{
		MaxIdle:     cfg.PoolMaxIdle,
		MaxActive:   cfg.PoolMaxActive,
		IdleTimeout: cfg.PoolIdleTimeout,
		Wait:        true,
		TestOnBorrow: func(c redis.Conn, lastUsed time.Time) error {
			if time.Since(lastUsed) < 15*time.Second {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
		Dial: func() (redis.Conn, error) {
			var conn redis.Conn
			err := backoff.Retry(func() error {
				var err error
				conn, err = redis.Dial("tcp", addr,
					redis.DialPassword(cfg.Password),
					redis.DialConnectTimeout(cfg.PoolIdleTimeout),
					redis.DialReadTimeout(cfg.PoolIdleTimeout),
				)
				return err
			}, backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(cfg.DialMaxElapsedTime)))
			return conn, err
		},
	}

	return &Redis{
		pool:   pool,
		cfg:    cfg,
		lastID: strconv.FormatInt(time.Now().Add(-cfg.RetentionWindow).UnixMilli(), 10) + "-0",
		log:    log,
	}
}

// SendUpdates XADDs each update to the replication stream, then XTRIMs
// entries older than the configured retention window.
func (r *Redis) SendUpdates(updates []Update) []Ack {
	out := make([]Ack, len(updates))
	conn := r.pool.Get()
	defer conn.Close()

	for i, u := range updates {
		payload, err := json.Marshal(u.Record)
		if err != nil {
			out[i] = Ack{Err: err}
			continue
		}
		err = conn.Send("XADD", replicationStream, "*", "op", opName(u.Op), "record", payload)
		if err != nil {
			out[i] = Ack{Err: err}
		}
	}

	threshold := strconv.FormatInt(time.Now().Add(-r.cfg.RetentionWindow).UnixMilli(), 10)
	if err := conn.Send("XTRIM", replicationStream, "MINID", threshold); err != nil {
		r.log.WithError(err).Warn("replication XTRIM failed")
	}

	replies, err := redis.Values(conn.Do(""))
	if err != nil {
		r.log.WithError(err).Error("replication pipeline flush failed")
		return out
	}
	for i := range updates {
		if i >= len(replies) {
			break
		}
		if id, ok := replies[i].([]byte); ok {
			out[i].ReplicationID = string(id)
		}
	}
	return out
}

// GetUpdates reads everything newer than the last-seen entry ID via
// XREAD.
func (r *Redis) GetUpdates() []Update {
	conn := r.pool.Get()
	defer conn.Close()

	reply, err := redis.Values(conn.Do("XREAD", "STREAMS", replicationStream, r.lastID))
	if err != nil || len(reply) == 0 {
		return nil
	}

	streamReply, err := redis.Values(reply[0], nil)
	if err != nil || len(streamReply) < 2 {
		return nil
	}
	entries, err := redis.Values(streamReply[1], nil)
	if err != nil {
		return nil
	}

	var out []Update
	for _, raw := range entries {
		entry, err := redis.Values(raw, nil)
		if err != nil || len(entry) < 2 {
			continue
		}
		id, _ := redis.String(entry[0], nil)
		fields, err := redis.StringMap(entry[1], nil)
		if err != nil {
			continue
		}

		var rec record.Record
		if err := json.Unmarshal([]byte(fields["record"]), &rec); err != nil {
			continue
		}
		out = append(out, Update{Op: opFromName(fields["op"]), Record: rec})
		if id != "" {
			r.lastID = id
		}
	}
	return out
}

func (r *Redis) ReplicationIDPattern() *regexp.Regexp { return entryIDPattern }

var _ Replicator = (*Redis)(nil)

func opName(op Op) string {
	switch op {
	case OpRegister:
		return "register"
	case OpRenew:
		return "renew"
	case OpDelete:
		return "delete"
	default:
		return strings.ToLower(fmt.Sprintf("%d", op))
	}
}

func opFromName(s string) Op {
	switch s {
	case "register":
		return OpRegister
	case "renew":
		return OpRenew
	case "delete":
		return OpDelete
	default:
		return OpRegister
	}
}
