package tracing

import (
	"kycflow/testinfra"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
)

func TestTracingIngress(t *testing.T) {
	RegisterTestingT(t)

	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	router := gin.Default()
	router.Use(TracingIngress())
	router.GET("/v1/kyc-workflows/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/v1/kyc-workflows/:id/approve", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	t.Run("new root trace", func(t *testing.T) {
		tracer.Reset()

		req := httptest.NewRequest(http.MethodGet, "/v1/kyc-workflows/100", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(1))
		s := spans[0]
		Expect(s.OperationName).To(Equal("GET /v1/kyc-workflows/:id"))
		Expect(s.ParentID).To(Equal(0))
		Expect(time.Since(s.StartTime) < time.Second).To(BeTrue())
		Expect(time.Since(s.FinishTime) < time.Second).To(BeTrue())
		Expect(s.SpanContext.SpanID).ToNot(BeZero())
		Expect(s.Tag("http.method")).To(Equal("GET"))
		Expect(s.Tag("http.url")).To(Equal("/v1/kyc-workflows/100"))
		Expect(s.Tag("http.status_code")).To(Equal(uint16(200)))
		Expect(s.Tag("error")).To(BeNil())
	})

	t.Run("server failures are flagged", func(t *testing.T) {
		tracer.Reset()

		req := httptest.NewRequest(http.MethodPost, "/v1/kyc-workflows/100/approve", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(1))
		Expect(spans[0].OperationName).To(Equal("POST /v1/kyc-workflows/:id/approve"))
		Expect(spans[0].Tag("http.status_code")).To(Equal(uint16(500)))
		Expect(spans[0].Tag("error")).To(Equal(true))
	})

	t.Run("unmatched routes use the request path", func(t *testing.T) {
		tracer.Reset()

		req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(tracer.FinishedSpans()[0].OperationName).To(Equal("GET /nowhere"))
	})

	t.Run("child trace", func(t *testing.T) {
		tracer.Reset()

		clientSpan := tracer.StartSpan("client")

		req := httptest.NewRequest(http.MethodGet, "/v1/kyc-workflows/100", nil)
		tracer.Inject(clientSpan.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))
		status, _, _ := testinfra.ExecuteRequest(req, router)

		clientSpan.Finish()

		Expect(status).To(Equal(http.StatusOK))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(2))
		s0 := spans[1]
		Expect(s0.OperationName).To(Equal("client"))
		Expect(s0.ParentID).To(BeZero())
		Expect(s0.SpanContext.TraceID).ToNot(BeZero())
		Expect(s0.SpanContext.Sampled).To(BeTrue())

		s1 := spans[0]
		Expect(s1.OperationName).To(Equal("GET /v1/kyc-workflows/:id"))
		Expect(s1.ParentID).To(Equal(s0.SpanContext.SpanID))
		Expect(s1.SpanContext.TraceID).To(Equal(s0.SpanContext.TraceID))
		Expect(s1.SpanContext.Sampled).To(BeTrue())
	})
}
