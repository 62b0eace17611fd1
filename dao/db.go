package dao

import (
	"sync"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/index"
	"github.com/asdine/storm/v3/q"
	"github.com/firstfin/sarah/model"
	"github.com/firstfin/sarah/util"
	bolt "go.etcd.io/bbolt"
)

type Db interface {
	Init(data interface{}) error
	One(fieldName string, value interface{}, to interface{}) error
	Update(data interface{}) error
	UpdateField(data interface{}, fieldName string, value interface{}) error
	Save(data interface{}) error
	DeleteStruct(data interface{}) error
	Select(matchers ...q.Matcher) storm.Query
	Find(fieldName string, value interface{}, to interface{}, options ...func(q *index.Options)) error
	All(to interface{}, options ...func(*index.Options)) error
	Begin(writable bool) (storm.Node, error)
	Close() error
}

var (
	once     sync.Once
	instance Db
)

var buckets = []interface{}{
	&model.Customer{},
	&model.Conversation{},
	&model.Message{},
	&model.Appointment{},
	&model.Callback{},
	&model.AnalyticsEvent{},
	&model.BulkMessage{},
	&model.DeskUser{},
	&model.DeskRefreshToken{},
	&model.InventoryVehicle{},
	&model.CRMEntry{},
	&model.DealLogEntry{},
	&model.LenderRates{},
	&model.Scenario{},
}

func GetClient(dbFilePath string) (Db, error) {
	var err error

	once.Do(func() {
		fresh := !util.FileExists(dbFilePath)
		instance, err = storm.Open(dbFilePath, storm.BoltOptions(0600, &bolt.Options{Timeout: 10 * time.Second, ReadOnly: false}))
		if err != nil {
			return
		}
		if fresh {
			for _, bucket := range buckets {
				err = instance.Init(bucket)
				if err != nil {
					return
				}
			}
		}
	})

	return instance, err
}

// notFound reports storm's sentinel "not found" condition.
func notFound(err error) bool {
	return err != nil && err.Error() == "not found"
}
