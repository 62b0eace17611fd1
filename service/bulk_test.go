package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firstfin/sarah/model"
	"github.com/firstfin/sarah/service/dto"
	"github.com/stretchr/testify/require"
)

var errSendDown = errors.New("carrier down")

type bulkFixture struct {
	svc       *bulkService
	transport *mockTransport
	bulk      *mockBulkDao
	customers *mockCustomerDao
	convs     *mockConversationDao
	msgs      *mockMessageDao
	leads     *mockLeadDao
}

func newBulkFixture() *bulkFixture {
	f := &bulkFixture{
		transport: &mockTransport{},
		bulk:      newMockBulkDao(),
		customers: newMockCustomerDao(),
		convs:     newMockConversationDao(),
		msgs:      newMockMessageDao(),
		leads:     newMockLeadDao(),
	}
	f.svc = NewBulkService(f.transport, f.bulk, f.customers, f.convs, f.msgs, f.leads).(*bulkService)
	return f
}

func campaignRequest(contacts ...dto.Contact) dto.CampaignRequest {
	return dto.CampaignRequest{
		CampaignName: "spring-sale",
		Template:     "Hi {name}, spring deals are on at First Financial!",
		Contacts:     contacts,
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newBulkFixture()

	_, err := f.svc.CreateCampaign(dto.CampaignRequest{Template: "Hi {name}", Contacts: []dto.Contact{{Phone: "5873066133"}}})
	require.IsType(t, &InvalidPayloadErr{}, err)

	_, err = f.svc.CreateCampaign(dto.CampaignRequest{CampaignName: "x", Template: "Hi {name}"})
	require.IsType(t, &InvalidPayloadErr{}, err)

	_, err = f.svc.CreateCampaign(dto.CampaignRequest{CampaignName: "x", Template: "no placeholder", Contacts: []dto.Contact{{Phone: "5873066133"}}})
	require.IsType(t, &InvalidPayloadErr{}, err)

	_, err = f.svc.CreateCampaign(dto.CampaignRequest{
		CampaignName: "x",
		Template:     "Hi {name} " + strings.Repeat("a", 1600),
		Contacts:     []dto.Contact{{Phone: "5873066133"}},
	})
	require.IsType(t, &InvalidPayloadErr{}, err)
}

func TestCreateCampaignStaggersSchedule(t *testing.T) {
	f := newBulkFixture()
	before := time.Now()

	result, err := f.svc.CreateCampaign(campaignRequest(
		dto.Contact{Name: "Amy", Phone: "5873066133"},
		dto.Contact{Name: "Bob", Phone: "4031234567"},
		dto.Contact{Name: "Cal", Phone: "6041112222"},
	))
	require.NoError(t, err)
	require.Equal(t, 3, result.Scheduled)
	require.Empty(t, result.Skipped)

	jobs := f.bulk.jobs
	require.Len(t, jobs, 3)

	// first job a minute out, then strictly increasing 15s apart
	require.True(t, jobs[0].ScheduledAt.After(before.Add(59*time.Second)))
	for i := 1; i < len(jobs); i++ {
		gap := jobs[i].ScheduledAt.Sub(jobs[i-1].ScheduledAt)
		require.Equal(t, 15*time.Second, gap)
	}
	require.Equal(t, jobs[0].ScheduledAt, result.FirstSendAt)
	require.Equal(t, jobs[2].ScheduledAt, result.LastSendAt)
}

func TestCreateCampaignSkipsBadPhones(t *testing.T) {
	f := newBulkFixture()

	result, err := f.svc.CreateCampaign(campaignRequest(
		dto.Contact{Name: "Amy", Phone: "5873066133"},
		dto.Contact{Name: "Bad", Phone: "12345"},
	))
	require.NoError(t, err)
	require.Equal(t, 1, result.Scheduled)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, "Bad", result.Skipped[0].Name)

	_, err = f.svc.CreateCampaign(campaignRequest(dto.Contact{Name: "Bad", Phone: "12345"}))
	require.IsType(t, &InvalidPayloadErr{}, err)
}

func TestDrainSendsDueJobsWithSubstitution(t *testing.T) {
	f := newBulkFixture()

	_, err := f.svc.CreateCampaign(campaignRequest(
		dto.Contact{Name: "Amy", Phone: "5873066133"},
		dto.Contact{Phone: "4031234567"},
	))
	require.NoError(t, err)

	// nothing due yet
	f.svc.drain()
	require.Empty(t, f.transport.allSent())

	for _, job := range f.bulk.jobs {
		job.ScheduledAt = time.Now().Add(-time.Second)
	}
	f.svc.drain()

	sent := f.transport.allSent()
	require.Len(t, sent, 2)
	require.Contains(t, sent[0].Body, "Hi Amy,")
	require.Contains(t, sent[1].Body, "Hi there,")

	stats, err := f.svc.CampaignStats("spring-sale")
	require.NoError(t, err)
	require.Equal(t, 2, stats.Sent)
	require.Equal(t, 0, stats.Pending)

	// campaign text lands on the recipient's conversation log
	conv, err := f.convs.GetMostRecent("+15873066133")
	require.NoError(t, err)
	count, _ := f.msgs.CountByConversation(conv.Id)
	require.Equal(t, 1, count)
}

func TestDrainBlocksBlacklistedRecipient(t *testing.T) {
	f := newBulkFixture()

	_, err := f.svc.CreateCampaign(campaignRequest(
		dto.Contact{Name: "Blocked", Phone: "2899688778"},
		dto.Contact{Name: "Amy", Phone: "5873066133"},
	))
	require.NoError(t, err)

	for _, job := range f.bulk.jobs {
		job.ScheduledAt = time.Now().Add(-time.Second)
	}
	f.svc.drain()

	sent := f.transport.allSent()
	require.Len(t, sent, 1)
	require.Equal(t, "+15873066133", sent[0].To)

	counts, err := f.svc.Status()
	require.NoError(t, err)
	require.Equal(t, 1, counts.Counts[model.BulkBlocked])
	require.Equal(t, 1, counts.Counts[model.BulkSent])
}

func TestDrainMarksFailures(t *testing.T) {
	f := newBulkFixture()
	f.transport.sendErr = errSendDown

	_, err := f.svc.CreateCampaign(campaignRequest(dto.Contact{Name: "Amy", Phone: "5873066133"}))
	require.NoError(t, err)

	f.bulk.jobs[0].ScheduledAt = time.Now().Add(-time.Second)
	f.svc.drain()

	require.Equal(t, model.BulkFailed, f.bulk.jobs[0].Status)
	require.Contains(t, f.bulk.jobs[0].ErrorMessage, "carrier down")
}

func TestPauseBlocksSending(t *testing.T) {
	f := newBulkFixture()

	_, err := f.svc.CreateCampaign(campaignRequest(dto.Contact{Name: "Amy", Phone: "5873066133"}))
	require.NoError(t, err)
	f.bulk.jobs[0].ScheduledAt = time.Now().Add(-time.Second)

	f.svc.Pause()
	status, err := f.svc.Status()
	require.NoError(t, err)
	require.True(t, status.Paused)

	f.svc.Resume()
	status, err = f.svc.Status()
	require.NoError(t, err)
	require.False(t, status.Paused)
}

func TestStopBulkCancelsPending(t *testing.T) {
	f := newBulkFixture()

	_, err := f.svc.CreateCampaign(campaignRequest(
		dto.Contact{Name: "Amy", Phone: "5873066133"},
		dto.Contact{Name: "Bob", Phone: "4031234567"},
	))
	require.NoError(t, err)

	cancelled, err := f.svc.StopBulk()
	require.NoError(t, err)
	require.Equal(t, 2, cancelled)

	status, err := f.svc.Status()
	require.NoError(t, err)
	require.Equal(t, 2, status.Counts[model.BulkCancelled])
	require.Zero(t, status.Counts[model.BulkPending])
}

func TestEmergencyStopHaltsLoop(t *testing.T) {
	f := newBulkFixture()
	f.svc.Start()

	_, err := f.svc.CreateCampaign(campaignRequest(dto.Contact{Name: "Amy", Phone: "5873066133"}))
	require.NoError(t, err)

	cancelled, err := f.svc.EmergencyStop()
	require.NoError(t, err)
	require.Equal(t, 1, cancelled)

	// second invocation must not panic and has nothing left to cancel
	cancelled, err = f.svc.EmergencyStop()
	require.NoError(t, err)
	require.Zero(t, cancelled)

	require.Eventually(t, func() bool {
		status, err := f.svc.Status()
		return err == nil && !status.Running
	}, 2*time.Second, 10*time.Millisecond)
}

func TestParseContactsCSV(t *testing.T) {
	f := newBulkFixture()

	csvBody := "name,phone\nAmy,5873066133\nBob,(403) 123-4567\nBad,12\n,missingname\nAmy again,587-306-6133\nBlocked,2899688778\n"
	result, err := f.svc.ParseContactsCSV(strings.NewReader(csvBody))
	require.NoError(t, err)
	require.Len(t, result.Contacts, 2)
	require.Equal(t, "+15873066133", result.Contacts[0].Phone)
	require.Equal(t, "+14031234567", result.Contacts[1].Phone)
	require.Len(t, result.Errors, 4)
	require.Contains(t, result.Errors[2], "duplicate")
	require.Contains(t, result.Errors[3], "blacklisted")
}

func TestParseContactsCSVEmpty(t *testing.T) {
	f := newBulkFixture()
	_, err := f.svc.ParseContactsCSV(strings.NewReader(""))
	require.IsType(t, &InvalidPayloadErr{}, err)
}

func TestPurgeBlacklisted(t *testing.T) {
	f := newBulkFixture()

	_, err := f.bulk.SaveAll([]*model.BulkMessage{
		{CampaignName: "x", RecipientPhone: "+12899688778", Status: model.BulkBlocked},
		{CampaignName: "x", RecipientPhone: "+15873066133", Status: model.BulkSent},
	})
	require.NoError(t, err)

	_, err = f.leads.SaveCallback(model.Callback{Phone: "+12899688778", Name: "Blocked"})
	require.NoError(t, err)
	_, err = f.leads.SaveAppointment(model.Appointment{Phone: "+15873066133", Name: "Amy"})
	require.NoError(t, err)

	removed, err := f.svc.PurgeBlacklisted()
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.Len(t, f.bulk.jobs, 1)
	require.Empty(t, f.leads.callbacks)
	require.Len(t, f.leads.appointments, 1)
}
