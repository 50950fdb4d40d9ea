package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/perfil-ecom/internal/cart"
	"github.com/MikeMC777/perfil-ecom/internal/httpx"
	"github.com/MikeMC777/perfil-ecom/internal/user"
)

const maxAvatarSize = 5 << 20 // 5MB

var phoneRe = regexp.MustCompile(`^[0-9]{10,11}$`)

// cartStore is what the cart handlers need from the durable store.
type cartStore interface {
	cart.Loader
	Save(ctx context.Context, userID int64, c *cart.Cart)
}

func registerRoutes(r *gin.Engine, users user.Repository, carts cartStore, publicDir string) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	auth := r.Group("/", requireAuth())
	auth.GET("/profile", getProfileHandler(users))
	auth.PUT("/profile", updateProfileHandler(users, publicDir))
	auth.PUT("/profile/password", changePasswordHandler(users))

	r.GET("/cart", getCartHandler(carts))
	r.POST("/cart/items", addCartItemHandler(carts))
	r.DELETE("/cart/items/:sku", removeCartItemHandler(carts))
	r.DELETE("/cart", clearCartHandler(carts))
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := httpx.CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, HTTPError{Error: "login required"})
			return
		}
		c.Next()
	}
}

// sessionOf avoids handing a nil *httpx.Session to the cart accessor as a
// non-nil interface.
func sessionOf(c *gin.Context) cart.Session {
	if s := httpx.GetSession(c); s != nil {
		return s
	}
	return nil
}

func currentUserID(c *gin.Context) int64 {
	u, ok := httpx.CurrentUser(c)
	if !ok {
		return 0
	}
	return u.ID
}

// @Summary Profile page data
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} HTTPError
// @Router /profile [get]
func getProfileHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)
		u, err := users.GetByID(c.Request.Context(), uid)
		if err == user.ErrNotFound {
			c.JSON(http.StatusNotFound, HTTPError{Error: "user not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not load profile"})
			return
		}

		// counters are decoration, a failing count must not break the page
		orders, err := users.CountOrders(c.Request.Context(), uid)
		if err != nil {
			logrus.Warnf("[profile] counting orders for user %d: %v", uid, err)
		}
		wishlist, err := users.CountWishlist(c.Request.Context(), uid)
		if err != nil {
			logrus.Warnf("[profile] counting wishlist for user %d: %v", uid, err)
		}

		c.JSON(http.StatusOK, ProfileResponse{User: u, OrderCount: orders, WishlistCount: wishlist})
	}
}

// @Summary Update profile (multipart, optional avatar file)
// @Accept mpfd
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} HTTPError
// @Router /profile [put]
func updateProfileHandler(users user.Repository, publicDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)

		name := strings.TrimSpace(c.PostForm("name"))
		phone := strings.TrimSpace(c.PostForm("phone"))
		address := strings.TrimSpace(c.PostForm("address"))

		if name == "" || len(name) > 100 {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "name is required, 100 chars max"})
			return
		}
		if phone != "" && !phoneRe.MatchString(phone) {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "phone must be 10-11 digits"})
			return
		}
		if len(address) > 500 {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "address is 500 chars max"})
			return
		}

		u, err := users.GetByID(c.Request.Context(), uid)
		if err == user.ErrNotFound {
			c.JSON(http.StatusNotFound, HTTPError{Error: "user not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not load profile"})
			return
		}

		avatarPath := u.Avatar
		var savedFile string

		if fh, ferr := c.FormFile("avatar"); ferr == nil {
			if fh.Size > maxAvatarSize {
				c.JSON(http.StatusBadRequest, HTTPError{Error: "avatar too large, 5MB max"})
				return
			}
			if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
				c.JSON(http.StatusBadRequest, HTTPError{Error: "avatar must be an image"})
				return
			}
			filename := user.NewAvatarFilename(fh.Filename)
			dir := filepath.Join(publicDir, "img", "avatars")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not store avatar"})
				return
			}
			savedFile = filepath.Join(dir, filename)
			if err := c.SaveUploadedFile(fh, savedFile); err != nil {
				// a partially written file must not survive
				_ = os.Remove(savedFile)
				c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not store avatar"})
				return
			}
			p := user.AvatarURLPrefix + filename
			avatarPath = &p
		}

		up := &user.ProfileUpdate{
			ID:      uid,
			Name:    name,
			Phone:   nilIfEmpty(phone),
			Address: nilIfEmpty(address),
			Avatar:  avatarPath,
		}
		if err := users.UpdateProfile(c.Request.Context(), up); err != nil {
			if savedFile != "" {
				_ = os.Remove(savedFile)
			}
			c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not update profile"})
			return
		}

		// the new file replaced the old one, drop the stale local copy
		if savedFile != "" && u.Avatar != nil {
			user.RemoveLocalAvatar(publicDir, *u.Avatar)
		}

		updated, err := users.GetByID(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not reload profile"})
			return
		}

		if s := httpx.GetSession(c); s != nil {
			su := httpx.SessionUser{ID: updated.ID, Name: updated.Name, Email: updated.Email, Role: updated.Role}
			if updated.Avatar != nil {
				su.Avatar = *updated.Avatar
			}
			httpx.SetUser(s, su)
		}

		c.JSON(http.StatusOK, ProfileResponse{User: updated})
	}
}

// @Summary Change password
// @Accept json
// @Produce json
// @Success 204
// @Failure 400 {object} HTTPError
// @Router /profile/password [put]
func changePasswordHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "current password and a new password of 6+ chars are required"})
			return
		}
		if req.NewPassword != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "password confirmation does not match"})
			return
		}

		uid := currentUserID(c)
		u, err := users.GetByID(c.Request.Context(), uid)
		if err == user.ErrNotFound {
			c.JSON(http.StatusNotFound, HTTPError{Error: "user not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not load user"})
			return
		}
		if u.GoogleID != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "google accounts cannot change their password here"})
			return
		}
		if !user.CheckPassword(u.PasswordHash, req.CurrentPassword) {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "current password is incorrect"})
			return
		}

		hash, err := user.HashPassword(req.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not hash password"})
			return
		}
		if err := users.UpdatePassword(c.Request.Context(), uid, hash); err != nil {
			c.JSON(http.StatusInternalServerError, HTTPError{Error: "could not update password"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary Current cart
// @Produce json
// @Success 200 {object} CartResponse
// @Router /cart [get]
func getCartHandler(carts cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		cc := cart.Current(c.Request.Context(), carts, sessionOf(c), currentUserID(c))
		c.JSON(http.StatusOK, CartResponse{Cart: cc, TotalPrice: cc.TotalPrice()})
	}
}

// @Summary Add a cart line item
// @Accept json
// @Produce json
// @Success 200 {object} CartResponse
// @Failure 400 {object} HTTPError
// @Router /cart/items [post]
func addCartItemHandler(carts cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, HTTPError{Error: "sku and a positive qty are required"})
			return
		}
		mutateCart(c, carts, func(cc *cart.Cart) {
			cc.AddItem(req.SKU, req.Qty, req.PriceCents)
		})
	}
}

// @Summary Remove a cart line item
// @Produce json
// @Success 200 {object} CartResponse
// @Router /cart/items/{sku} [delete]
func removeCartItemHandler(carts cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sku := c.Param("sku")
		mutateCart(c, carts, func(cc *cart.Cart) {
			cc.RemoveItem(sku)
		})
	}
}

// @Summary Empty the cart
// @Produce json
// @Success 200 {object} CartResponse
// @Router /cart [delete]
func clearCartHandler(carts cartStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		mutateCart(c, carts, func(cc *cart.Cart) {
			cc.Clear()
		})
	}
}

// mutateCart applies fn to the current cart and persists the result: into
// the session always, into the store for logged-in users. Store failures
// stay invisible here, the session copy carries the request.
func mutateCart(c *gin.Context, carts cartStore, fn func(*cart.Cart)) {
	sess := sessionOf(c)
	uid := currentUserID(c)

	cc := cart.Current(c.Request.Context(), carts, sess, uid)
	fn(cc)
	if sess != nil {
		sess.Set(cart.SessionKey, cc)
	}
	if uid > 0 {
		carts.Save(c.Request.Context(), uid, cc)
	}
	c.JSON(http.StatusOK, CartResponse{Cart: cc, TotalPrice: cc.TotalPrice()})
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
