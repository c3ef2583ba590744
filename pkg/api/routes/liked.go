package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/travigo/nextbus/pkg/liked"
)

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type groupsBody struct {
	Groups map[string]*liked.BusGroup `json:"groups"`
	Order  []string                   `json:"order"`
}

func LikedRouter(router fiber.Router, services *Services) {
	router.Get("/stops", getLikedStops(services))
	router.Put("/stops", putLikedStops(services))
	router.Post("/stops/move", moveLikedStop(services))
	router.Post("/stops/:code/toggle", toggleLikedStop(services))

	router.Get("/groups", getLikedGroups(services))
	router.Put("/groups", putLikedGroups(services))
	router.Post("/groups", createLikedGroup(services))
	router.Post("/groups/move", moveLikedGroup(services))
	router.Post("/groups/:name/rename", renameLikedGroup(services))
	router.Post("/groups/:name/archive", archiveLikedGroup(services))
	router.Post("/groups/:name/toggle", toggleLikedService(services))
	router.Delete("/groups/:name", deleteLikedGroup(services))
}

func getLikedStops(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"stops": services.Liked.LikedStops(),
		})
	}
}

func putLikedStops(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Stops []string `json:"stops"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}

		if err := services.Liked.SetStopOrder(c.UserContext(), body.Stops); err != nil {
			return likedError(c, err)
		}

		return getLikedStops(services)(c)
	}
}

func moveLikedStop(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body moveRequest
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}

		if err := services.Liked.MoveStop(c.UserContext(), body.From, body.To); err != nil {
			return likedError(c, err)
		}

		return getLikedStops(services)(c)
	}
}

func toggleLikedStop(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Collections keeps the code so it must not alias the request buffer
		code := utils.CopyString(c.Params("code"))
		if _, ok := services.Catalog.Get(code); !ok {
			c.SendStatus(fiber.StatusNotFound)
			return c.JSON(fiber.Map{
				"error": "Could not find Stop matching Stop Code",
			})
		}

		isLiked, err := services.Liked.ToggleStop(c.UserContext(), code)
		if err != nil {
			return likedError(c, err)
		}

		return c.JSON(fiber.Map{
			"stop":  code,
			"liked": isLiked,
			"stops": services.Liked.LikedStops(),
		})
	}
}

func getLikedGroups(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(groupsBody{
			Groups: services.Liked.Groups(),
			Order:  services.Liked.GroupOrder(),
		})
	}
}

func putLikedGroups(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body groupsBody
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}

		if err := services.Liked.ReplaceGroups(c.UserContext(), body.Groups, body.Order); err != nil {
			return likedError(c, err)
		}

		return getLikedGroups(services)(c)
	}
}

func createLikedGroup(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}

		if err := services.Liked.CreateGroup(c.UserContext(), body.Name); err != nil {
			return likedError(c, err)
		}

		c.Status(fiber.StatusCreated)
		return getLikedGroups(services)(c)
	}
}

func moveLikedGroup(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body moveRequest
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}

		if err := services.Liked.MoveGroup(c.UserContext(), body.From, body.To); err != nil {
			return likedError(c, err)
		}

		return getLikedGroups(services)(c)
	}
}

func renameLikedGroup(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}

		if err := services.Liked.RenameGroup(c.UserContext(), groupName(c), body.Name); err != nil {
			return likedError(c, err)
		}

		return getLikedGroups(services)(c)
	}
}

func archiveLikedGroup(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Archived bool `json:"archived"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}

		if err := services.Liked.ArchiveGroup(c.UserContext(), groupName(c), body.Archived); err != nil {
			return likedError(c, err)
		}

		return getLikedGroups(services)(c)
	}
}

func toggleLikedService(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			StopCode string `json:"stop"`
			Service  string `json:"service"`
		}
		if err := c.BodyParser(&body); err != nil || body.StopCode == "" || body.Service == "" {
			return badBody(c)
		}

		isLiked, err := services.Liked.ToggleService(c.UserContext(), groupName(c), body.StopCode, body.Service)
		if err != nil {
			return likedError(c, err)
		}

		return c.JSON(fiber.Map{
			"group":   c.Params("name"),
			"stop":    body.StopCode,
			"service": body.Service,
			"liked":   isLiked,
		})
	}
}

func deleteLikedGroup(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.Liked.DeleteGroup(c.UserContext(), groupName(c)); err != nil {
			return likedError(c, err)
		}

		return getLikedGroups(services)(c)
	}
}

// groupName copies the :name param out of the pooled request buffer
func groupName(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("name"))
}

func badBody(c *fiber.Ctx) error {
	c.SendStatus(fiber.StatusBadRequest)
	return c.JSON(fiber.Map{
		"error": "Could not parse request body",
	})
}

// likedError maps collection errors to responses. Persistence failures are not
// fatal for the UI, it keeps showing the last confirmed value.
func likedError(c *fiber.Ctx, err error) error {
	var persistenceErr *liked.PersistenceError

	switch {
	case errors.Is(err, liked.ErrGroupNotFound):
		c.SendStatus(fiber.StatusNotFound)
	case errors.Is(err, liked.ErrGroupExists):
		c.SendStatus(fiber.StatusConflict)
	case errors.Is(err, liked.ErrInvalidGroupName), errors.Is(err, liked.ErrIndexOutOfRange):
		c.SendStatus(fiber.StatusBadRequest)
	case errors.As(err, &persistenceErr):
		c.SendStatus(fiber.StatusServiceUnavailable)
	default:
		c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}
