package handlers

import (
	"io"
	"log"
	"net/http"
	"net/url"

	"Pedalize/middleware"
	"Pedalize/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func respondError(c *gin.Context, status int, code uint16, message string) {
	c.JSON(status, models.NewApiError(code, message))
}

func respondOK(c *gin.Context, code uint16, message string) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"code":    code,
	})
}

func logError(c *gin.Context, target string, format string, args ...any) {
	log.Printf("[%s] %s "+format, append([]any{target, middleware.RequestID(c)}, args...)...)
}

// 綁定form或JSON。DELETE的form body不會被net/http解析，需手動讀取
func bindForm(c *gin.Context, obj any) error {
	if c.Request.Method != http.MethodDelete || c.ContentType() != binding.MIMEPOSTForm {
		return c.ShouldBind(obj)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	postForm, err := url.ParseQuery(string(body))
	if err != nil {
		return err
	}

	form := c.Request.URL.Query()
	for key, values := range postForm {
		form[key] = append(values, form[key]...)
	}
	c.Request.PostForm = postForm
	c.Request.Form = form

	return c.ShouldBindWith(obj, binding.Form)
}
