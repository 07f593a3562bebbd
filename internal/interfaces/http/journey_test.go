package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-resty/resty/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type idResponse struct {
	ID int64 `json:"id"`
}

type stepResponse struct {
	Step    string   `json:"step"`
	Tasks   []string `json:"tasks"`
	Message string   `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorBody struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	CurrentStep string `json:"current_step"`
}

var _ = Describe("Applicant journey", Ordered, func() {
	var (
		ts     *httptest.Server
		client *resty.Client
	)

	BeforeAll(func() {
		s, _ := newTestServer(nil)
		ts = httptest.NewServer(s.Router())
		client = resty.New().SetBaseURL(ts.URL).SetHeader("Content-Type", "application/json")
	})

	AfterAll(func() {
		ts.Close()
	})

	create := func(email string) int64 {
		var out idResponse
		resp, err := client.R().
			SetBody(map[string]string{"email": email, "first_name": "Alan", "last_name": "Turing"}).
			SetResult(&out).
			Post("/api/users")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode()).To(Equal(http.StatusOK))
		return out.ID
	}

	complete := func(id int64, step string, payload map[string]interface{}) *resty.Response {
		resp, err := client.R().
			SetBody(map[string]interface{}{"user_id": id, "step_name": step, "step_payload": payload}).
			Put("/api/steps/complete")
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	status := func(id int64) string {
		var out statusResponse
		_, err := client.R().SetResult(&out).Get(fmt.Sprintf("/api/users/%d/status", id))
		Expect(err).NotTo(HaveOccurred())
		return out.Status
	}

	It("accepts an applicant who completes every step", func() {
		id := create("alan@example.com")
		Expect(status(id)).To(Equal("in_progress"))

		By("passing the IQ test")
		Expect(complete(id, "IQ Test", map[string]interface{}{"score": 80}).StatusCode()).To(Equal(http.StatusOK))

		By("scheduling and performing the interview")
		date := "2999-01-01"
		Expect(complete(id, "Interview", map[string]interface{}{"interview_date": date}).StatusCode()).To(Equal(http.StatusOK))

		var cur stepResponse
		_, err := client.R().SetResult(&cur).Get(fmt.Sprintf("/api/users/%d/step", id))
		Expect(err).NotTo(HaveOccurred())
		Expect(cur.Step).To(Equal("Interview"))
		Expect(cur.Tasks).To(ConsistOf("perform_interview"))

		Expect(complete(id, "Interview", map[string]interface{}{
			"interview_date": date,
			"interviewer_id": "int-9",
			"decision":       "passed_interview",
		}).StatusCode()).To(Equal(http.StatusOK))

		By("uploading an id and signing the contract")
		Expect(complete(id, "Sign Contract", map[string]interface{}{
			"passport_number": "X1234567",
			"timestamp":       "2025-01-02T10:00:00Z",
		}).StatusCode()).To(Equal(http.StatusOK))
		Expect(complete(id, "Sign Contract", map[string]interface{}{
			"timestamp": "2025-01-02T10:05:00Z",
		}).StatusCode()).To(Equal(http.StatusOK))
		Expect(status(id)).To(Equal("in_progress"))

		By("paying and joining slack")
		Expect(complete(id, "Payment", nil).StatusCode()).To(Equal(http.StatusOK))
		Expect(complete(id, "Join Slack", map[string]interface{}{}).StatusCode()).To(Equal(http.StatusOK))

		Expect(status(id)).To(Equal("accepted"))

		_, err = client.R().SetResult(&cur).Get(fmt.Sprintf("/api/users/%d/step", id))
		Expect(err).NotTo(HaveOccurred())
		Expect(cur.Message).To(Equal("All steps complete"))
	})

	It("refuses steps submitted out of order and names the current step", func() {
		id := create("ooo@example.com")

		var body errorBody
		resp, err := client.R().
			SetBody(map[string]interface{}{"user_id": id, "step_name": "Sign Contract"}).
			SetError(&body).
			Put("/api/steps/complete")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode()).To(Equal(http.StatusConflict))
		Expect(body.Kind).To(Equal("out_of_order"))
		Expect(body.CurrentStep).To(Equal("IQ Test"))
		Expect(body.Error).To(ContainSubstring("IQ Test"))
	})

	It("rejects an applicant who fails the interview", func() {
		id := create("reject@example.com")

		Expect(complete(id, "IQ Test", map[string]interface{}{"score": "75"}).StatusCode()).To(Equal(http.StatusOK))
		Expect(complete(id, "Interview", map[string]interface{}{"interview_date": "2999-06-01"}).StatusCode()).To(Equal(http.StatusOK))

		resp := complete(id, "Interview", map[string]interface{}{
			"interview_date": "2999-06-01",
			"interviewer_id": "int-1",
			"decision":       "failed_interview",
		})
		Expect(resp.StatusCode()).To(Equal(http.StatusOK))
		Expect(status(id)).To(Equal("rejected"))

		resp = complete(id, "Interview", map[string]interface{}{
			"interview_date": "2999-06-01",
			"interviewer_id": "int-1",
			"decision":       "passed_interview",
		})
		Expect(resp.StatusCode()).To(Equal(http.StatusConflict))
	})

	It("refuses an interview in the past", func() {
		id := create("past@example.com")
		Expect(complete(id, "IQ Test", map[string]interface{}{"score": 99}).StatusCode()).To(Equal(http.StatusOK))

		var body errorBody
		resp, err := client.R().
			SetBody(map[string]interface{}{
				"user_id":      id,
				"step_name":    "Interview",
				"step_payload": map[string]interface{}{"interview_date": "2001-01-01"},
			}).
			SetError(&body).
			Put("/api/steps/complete")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode()).To(Equal(http.StatusBadRequest))
		Expect(body.Kind).To(Equal("must_be_future"))
	})

	It("answers 404 for unknown applicants", func() {
		var body errorBody
		resp, err := client.R().SetError(&body).Get("/api/users/4242/step")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode()).To(Equal(http.StatusNotFound))
		Expect(body.Kind).To(Equal("not_found"))
	})
})
